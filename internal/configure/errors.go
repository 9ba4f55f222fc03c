package configure

import (
	"errors"
	"fmt"

	"github.com/fil-builders/onramp-configurator/internal/domain"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// RunError is returned by every failed run. It names where the run stopped.
type RunError struct {
	Phase Phase
	State State
	Chain string
	Err   error
}

func (e *RunError) Error() string {
	if e.Chain == "" {
		return fmt.Sprintf("%s failed in state %s: %v", e.Phase, e.State, e.Err)
	}
	return fmt.Sprintf("%s failed in state %s on chain '%s': %v", e.Phase, e.State, e.Chain, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// DependencyError reports that the deployment phase a configuration phase
// depends on has not produced its artifacts.
type DependencyError struct {
	Phase      Phase
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("phase %s depends on deployment phase '%s', which has not run: %v", e.Phase, e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// ErrorKind classifies err for reports and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration"
	case errors.Is(err, domain.ErrMissingArtifact):
		return "missing-artifact"
	case errors.Is(err, domain.ErrConflictingBinding):
		return "conflicting-binding"
	case errors.Is(err, domain.ErrTransaction):
		return "transaction"
	case errors.Is(err, domain.ErrVerificationMismatch):
		return "verification-mismatch"
	default:
		return "internal"
	}
}

// chainOf prefers the chain named by a typed error over fallback.
func chainOf(err error, fallback string) string {
	var (
		missingErr  *domain.MissingArtifactError
		txErr       *domain.TransactionError
		mismatchErr *domain.VerificationMismatchError
	)
	switch {
	case errors.As(err, &missingErr):
		return missingErr.ChainName
	case errors.As(err, &txErr):
		return txErr.ChainName
	case errors.As(err, &mismatchErr):
		return mismatchErr.ChainName
	}
	return fallback
}
