package configure

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateDiscovering, true},
		{StateDiscovering, StateBindingDestination, true},
		{StateDiscovering, StateBindingSource, true},
		{StateBindingDestination, StateProvisioningGas, true},
		{StateBindingDestination, StateVerifying, true},
		{StateBindingSource, StateVerifying, true},
		{StateVerifying, StateComplete, true},
		{StateIdle, StateFailed, true},
		{StateProvisioningGas, StateFailed, true},
		{StateVerifying, StateDiscovering, false},
		{StateBindingSource, StateBindingDestination, false},
		{StateDiscovering, StateDiscovering, false},
		{StateComplete, StateFailed, false},
		{StateFailed, StateDiscovering, false},
		{StateComplete, StateIdle, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestRunTransition(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	run := newRun(PhaseConfigSourceChain, configs.NetworkTestnet, now)
	assert.Equal(t, StateIdle, run.State)

	require.NoError(t, run.transition(StateDiscovering, now))
	require.NoError(t, run.transition(StateBindingSource, now))
	require.Error(t, run.transition(StateDiscovering, now))
	assert.Equal(t, StateBindingSource, run.State)

	require.NoError(t, run.transition(StateFailed, now))
	require.Error(t, run.transition(StateComplete, now))
	assert.Len(t, run.Transitions, 3)
	assert.Equal(t, Transition{From: StateBindingSource, To: StateFailed, At: now}, run.Transitions[2])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "BindingDestination", StateBindingDestination.String())
	assert.Equal(t, "State(42)", State(42).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateVerifying.Terminal())
}

func TestParsePhase(t *testing.T) {
	phase, err := ParsePhase("configfilecoin")
	require.NoError(t, err)
	assert.Equal(t, PhaseConfigFilecoin, phase)
	assert.Equal(t, "Filecoin", phase.Dependency())
	assert.True(t, phase.TargetsDestination())

	phase, err = ParsePhase(" ConfigSourceChain ")
	require.NoError(t, err)
	assert.Equal(t, PhaseConfigSourceChain, phase)
	assert.Equal(t, "SourceChain", phase.Dependency())
	assert.False(t, phase.TargetsDestination())

	_, err = ParsePhase("ConfigEverything")
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestErrorKind(t *testing.T) {
	tests := map[string]error{
		"configuration":         domain.NewConfigurationError("bad"),
		"missing-artifact":      &DependencyError{Err: &domain.MissingArtifactError{ChainName: "filecoin", ContractName: "DealClientAxl"}},
		"conflicting-binding":   &domain.ConflictingBindingError{},
		"transaction":           &RunError{Err: &domain.TransactionError{Err: errors.New("boom")}},
		"verification-mismatch": &domain.VerificationMismatchError{},
		"internal":              errors.New("boom"),
	}

	for kind, err := range tests {
		t.Run(kind, func(t *testing.T) {
			assert.Equal(t, kind, ErrorKind(err))
		})
	}
}

func TestRunErrorNamesChain(t *testing.T) {
	err := &domain.TransactionError{ChainName: "alpha", Method: "setOracle", Err: errors.New("boom")}
	assert.Equal(t, "alpha", chainOf(fmt.Errorf("wrapped: %w", err), "filecoin"))
	assert.Equal(t, "filecoin", chainOf(errors.New("boom"), "filecoin"))

	runErr := &RunError{Phase: PhaseConfigSourceChain, State: StateBindingSource, Chain: "alpha", Err: err}
	assert.Contains(t, runErr.Error(), "ConfigSourceChain failed in state BindingSource on chain 'alpha'")
	assert.ErrorIs(t, runErr, domain.ErrTransaction)
}
