package configure

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/artifacts"
	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/chain/chaintest"
	"github.com/fil-builders/onramp-configurator/internal/contracts"
	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/registry"
)

const (
	filecoinID = 314159
	alphaID    = 100
	betaID     = 200
	gammaID    = 300
)

var (
	proverAddr      = common.HexToAddress("0xF000000000000000000000000000000000000001")
	alphaOnRampAddr = common.HexToAddress("0xA000000000000000000000000000000000000001")
	alphaOracleAddr = common.HexToAddress("0xA000000000000000000000000000000000000002")
	betaOnRampAddr  = common.HexToAddress("0xB000000000000000000000000000000000000001")
	betaOracleAddr  = common.HexToAddress("0xB000000000000000000000000000000000000002")
	gammaOnRampAddr = common.HexToAddress("0xC000000000000000000000000000000000000001")
	strangerAddr    = common.HexToAddress("0xD000000000000000000000000000000000000001")

	testContracts = configs.Contracts{Prover: "DealClientAxl", OnRamp: "OnRampContract", Bridge: "AxelarBridge"}
	oneFIL        = big.NewInt(1e18)
)

type fixture struct {
	registry *registry.Registry
	repo     *artifacts.MemoryRepository
	dialer   *chaintest.Dialer
	filecoin *chaintest.Chain
	alpha    *chaintest.Chain
	beta     *chaintest.Chain
	settings Settings
	provider domain.ProviderID
}

func record(chainName, contract string, addr common.Address) domain.DeploymentRecord {
	return domain.DeploymentRecord{ChainName: chainName, ContractName: contract, Address: addr}
}

// newFixture deploys the prover on filecoin and both source contracts on
// alpha and beta. gamma is declared but has only an on-ramp.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg, err := registry.New(configs.Config{
		Network:     configs.NetworkTestnet,
		Destination: configs.Destination{Chain: "filecoin"},
		Networks: map[configs.NetworkName]map[string]configs.ChainDescriptor{
			configs.NetworkTestnet: {
				"filecoin": {ChainID: filecoinID, RPCURL: "https://filecoin.example"},
				"alpha":    {ChainID: alphaID, RPCURL: "https://alpha.example", SourceChain: true},
				"beta":     {ChainID: betaID, RPCURL: "https://beta.example", SourceChain: true},
				"gamma":    {ChainID: gammaID, RPCURL: "https://gamma.example", SourceChain: true},
			},
		},
	})
	require.NoError(t, err)

	repo := artifacts.NewMemoryRepository(
		artifacts.SourceContracts{OnRamp: testContracts.OnRamp, Bridge: testContracts.Bridge},
		record("filecoin", "DealClientAxl", proverAddr),
		record("alpha", "OnRampContract", alphaOnRampAddr),
		record("alpha", "AxelarBridge", alphaOracleAddr),
		record("beta", "OnRampContract", betaOnRampAddr),
		record("beta", "AxelarBridge", betaOracleAddr),
		record("gamma", "OnRampContract", gammaOnRampAddr),
	)

	provider, err := domain.NewProviderID("t017840")
	require.NoError(t, err)

	dialer := chaintest.NewDialer()
	f := &fixture{
		registry: reg,
		repo:     repo,
		dialer:   dialer,
		filecoin: dialer.Add("filecoin", chaintest.New(filecoinID)),
		alpha:    dialer.Add("alpha", chaintest.New(alphaID)),
		beta:     dialer.Add("beta", chaintest.New(betaID)),
		provider: provider,
	}
	f.settings = Settings{
		Contracts: testContracts,
		Gas:       &domain.GasDeposit{ProviderID: provider, Amount: oneFIL},
	}

	return f
}

func (f *fixture) orchestrator() *Orchestrator {
	return NewOrchestrator(f.registry, f.repo, f.dialer, f.settings)
}

func (f *fixture) run(t *testing.T, phase Phase, target string) (*Run, error) {
	t.Helper()
	run, err := f.orchestrator().Run(context.Background(), phase, target)
	require.NotNil(t, run)
	return run, err
}

func (f *fixture) sourceChain(t *testing.T, id uint64) domain.ChainBinding {
	t.Helper()
	binding, err := contracts.NewProver(f.filecoin, proverAddr).GetSourceChain(context.Background(), id)
	require.NoError(t, err)
	return binding
}

func states(run *Run) []State {
	out := []State{}
	for _, tr := range run.Transitions {
		out = append(out, tr.To)
	}
	return out
}

func assertAmount(t *testing.T, want, got *big.Int) {
	t.Helper()
	require.NotNil(t, got)
	assert.Zero(t, want.Cmp(got), "expected %s, got %s", want, got)
}

func requireRunError(t *testing.T, err error, state State) *RunError {
	t.Helper()
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, state, runErr.State)
	return runErr
}

func TestDestinationBindingRoundTrip(t *testing.T) {
	f := newFixture(t)

	run, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.NoError(t, err)

	assert.Equal(t, StateComplete, run.State)
	assert.Equal(t, []State{StateDiscovering, StateBindingDestination, StateProvisioningGas, StateVerifying, StateComplete}, states(run))
	assert.Equal(t, []string{contracts.MethodSetSourceChains, contracts.MethodAddGasFunds}, run.Submitted())

	alpha := f.sourceChain(t, alphaID)
	assert.Equal(t, "alpha", alpha.SourceChainName)
	assert.Equal(t, alphaOracleAddr, alpha.OracleAddress)

	beta := f.sourceChain(t, betaID)
	assert.Equal(t, "beta", beta.SourceChainName)
	assert.Equal(t, betaOracleAddr, beta.OracleAddress)

	assert.Equal(t, filecoinID, int(run.Target.ChainID))
	assert.Equal(t, f.filecoin.Sender(), run.Sender)
	assert.Zero(t, f.dialer.Dialed("alpha"), "destination phase never talks to source chains")
}

func TestDestinationBindingIsBatched(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, PhaseConfigFilecoin, registry.TargetDestination)
	require.NoError(t, err)

	calls := f.filecoin.Submitted()
	require.Len(t, calls, 2)

	batch := calls[0]
	require.Equal(t, contracts.MethodSetSourceChains, batch.Method)
	ids := batch.Args[0].([]*big.Int)
	names := batch.Args[1].([]string)
	oracles := batch.Args[2].([]common.Address)
	require.Len(t, ids, 2)
	assert.Equal(t, []string{"alpha", "beta"}, names)
	assert.Equal(t, []common.Address{alphaOracleAddr, betaOracleAddr}, oracles)
	assert.Equal(t, uint64(alphaID), ids[0].Uint64())
}

func TestDiscoveryExcludesPartialDeployments(t *testing.T) {
	f := newFixture(t)

	run, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.NoError(t, err)

	for _, b := range run.Bindings {
		assert.NotEqual(t, "gamma", b.Binding.SourceChainName)
	}
	assert.True(t, f.sourceChain(t, gammaID).IsZero())
}

func TestDestinationBindingIdempotent(t *testing.T) {
	f := newFixture(t)
	f.settings.Gas = nil

	first, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.NoError(t, err)
	assert.Equal(t, []string{contracts.MethodSetSourceChains}, first.Submitted())
	afterFirst := []domain.ChainBinding{f.sourceChain(t, alphaID), f.sourceChain(t, betaID)}

	second, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.NoError(t, err)
	assert.Equal(t, StateComplete, second.State)
	assert.Empty(t, second.Transactions)
	for _, b := range second.Bindings {
		assert.Equal(t, BindingUnchanged, b.Action)
	}

	assert.Equal(t, afterFirst, []domain.ChainBinding{f.sourceChain(t, alphaID), f.sourceChain(t, betaID)})
	assert.Len(t, f.filecoin.Submitted(), 1)
	assert.NotContains(t, states(second), StateProvisioningGas)
}

func TestGasDepositIsAdditive(t *testing.T) {
	f := newFixture(t)

	first, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.NoError(t, err)
	require.NotNil(t, first.Gas)
	assert.Zero(t, first.Gas.Before.Sign())
	assertAmount(t, oneFIL, first.Gas.After)

	second, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.NoError(t, err)
	assert.Equal(t, []string{contracts.MethodAddGasFunds}, second.Submitted())

	assertAmount(t, new(big.Int).Mul(oneFIL, big.NewInt(2)), f.filecoin.GasFunds(proverAddr, f.provider))
}

func TestDestinationPhaseMissingProver(t *testing.T) {
	f := newFixture(t)
	f.repo = artifacts.NewMemoryRepository(
		artifacts.SourceContracts{OnRamp: testContracts.OnRamp, Bridge: testContracts.Bridge},
		record("alpha", "OnRampContract", alphaOnRampAddr),
		record("alpha", "AxelarBridge", alphaOracleAddr),
	)

	run, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.ErrorIs(t, err, domain.ErrMissingArtifact)

	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "Filecoin", depErr.Dependency)

	runErr := requireRunError(t, err, StateDiscovering)
	assert.Equal(t, "filecoin", runErr.Chain)
	assert.Equal(t, StateFailed, run.State)
	assert.Empty(t, f.filecoin.Submitted())
	assert.Zero(t, f.dialer.Dialed("filecoin"))
}

func TestSourceBinding(t *testing.T) {
	f := newFixture(t)

	run, err := f.run(t, PhaseConfigSourceChain, "alpha")
	require.NoError(t, err)

	assert.Equal(t, []State{StateDiscovering, StateBindingSource, StateVerifying, StateComplete}, states(run))
	assert.Equal(t, []string{contracts.MethodSetOracle, contracts.MethodSetSenderReceiver}, f.alpha.Methods())
	assert.Empty(t, f.filecoin.Submitted())

	pair, err := contracts.NewBridge(f.alpha, alphaOracleAddr).SenderReceiver(context.Background())
	require.NoError(t, err)
	assert.Equal(t, proverAddr, pair.Sender)
	assert.Equal(t, alphaOnRampAddr, pair.Receiver)

	oracle, err := contracts.NewOnRamp(f.alpha, alphaOnRampAddr).Oracle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, alphaOracleAddr, oracle)

	require.NotNil(t, run.Source)
	assert.Equal(t, alphaOracleAddr, run.Source.Bridge)

	again, err := f.run(t, PhaseConfigSourceChain, "alpha")
	require.NoError(t, err)
	assert.Empty(t, again.Transactions)
}

func TestSourceBindingRequiresDestinationProver(t *testing.T) {
	f := newFixture(t)
	f.repo = artifacts.NewMemoryRepository(
		artifacts.SourceContracts{OnRamp: testContracts.OnRamp, Bridge: testContracts.Bridge},
		record("alpha", "OnRampContract", alphaOnRampAddr),
		record("alpha", "AxelarBridge", alphaOracleAddr),
	)

	_, err := f.run(t, PhaseConfigSourceChain, "alpha")
	require.ErrorIs(t, err, domain.ErrMissingArtifact)

	var missing *domain.MissingArtifactError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "DealClientAxl", missing.ContractName)
	assert.Equal(t, "filecoin", missing.ChainName)

	requireRunError(t, err, StateDiscovering)
	assert.Empty(t, f.alpha.Submitted())
	assert.Zero(t, f.dialer.Dialed("alpha"))
}

func TestSourceBindingReportsProverBeforeSourceContracts(t *testing.T) {
	f := newFixture(t)
	f.repo = artifacts.NewMemoryRepository(
		artifacts.SourceContracts{OnRamp: testContracts.OnRamp, Bridge: testContracts.Bridge},
		record("alpha", "AxelarBridge", alphaOracleAddr),
	)

	_, err := f.run(t, PhaseConfigSourceChain, "alpha")

	var missing *domain.MissingArtifactError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "DealClientAxl", missing.ContractName)
	assert.Equal(t, "filecoin", missing.ChainName)

	runErr := requireRunError(t, err, StateDiscovering)
	assert.Equal(t, "filecoin", runErr.Chain)
	assert.Zero(t, f.dialer.Dialed("alpha"))
}

func TestSourceBindingDependencyNotMet(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, PhaseConfigSourceChain, "gamma")

	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "SourceChain", depErr.Dependency)

	var missing *domain.MissingArtifactError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "AxelarBridge", missing.ContractName)
}

func TestWrongTargetFailsBeforeIO(t *testing.T) {
	tests := []struct {
		name   string
		phase  Phase
		target string
	}{
		{"destination phase on source chain", PhaseConfigFilecoin, "alpha"},
		{"source phase on destination", PhaseConfigSourceChain, "filecoin"},
		{"source phase on destination alias", PhaseConfigSourceChain, registry.TargetDestination},
		{"undeclared chain", PhaseConfigFilecoin, "solana"},
		{"empty target", PhaseConfigSourceChain, ""},
		{"unknown phase", Phase("ConfigEverything"), "filecoin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			run, err := f.run(t, tt.phase, tt.target)
			require.ErrorIs(t, err, domain.ErrConfiguration)
			requireRunError(t, err, StateIdle)
			assert.Equal(t, StateFailed, run.State)
			assert.Zero(t, f.dialer.Dialed("filecoin"))
			assert.Zero(t, f.dialer.Dialed("alpha"))
		})
	}
}

func TestNoCandidateSourceChains(t *testing.T) {
	f := newFixture(t)
	f.repo = artifacts.NewMemoryRepository(
		artifacts.SourceContracts{OnRamp: testContracts.OnRamp, Bridge: testContracts.Bridge},
		record("filecoin", "DealClientAxl", proverAddr),
		record("gamma", "OnRampContract", gammaOnRampAddr),
	)

	_, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.ErrorIs(t, err, domain.ErrConfiguration)
	require.ErrorContains(t, err, "no valid source chain deployments found")
	requireRunError(t, err, StateDiscovering)
}

func TestUndeclaredCandidateChain(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.Put(context.Background(), record("delta", "OnRampContract", strangerAddr)))
	require.NoError(t, f.repo.Put(context.Background(), record("delta", "AxelarBridge", strangerAddr)))

	_, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Empty(t, f.filecoin.Submitted())
}

func TestConflictingBinding(t *testing.T) {
	f := newFixture(t)
	existing := domain.ChainBinding{SourceChainID: alphaID, SourceChainName: "alpha", OracleAddress: strangerAddr}
	f.filecoin.SetSourceChain(proverAddr, existing)

	_, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.ErrorIs(t, err, domain.ErrConflictingBinding)

	var conflict *domain.ConflictingBindingError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, strangerAddr, conflict.Existing.OracleAddress)
	assert.Equal(t, alphaOracleAddr, conflict.Requested.OracleAddress)

	requireRunError(t, err, StateBindingDestination)
	assert.Empty(t, f.filecoin.Submitted())
	assert.Equal(t, existing, f.sourceChain(t, alphaID))
}

func TestConflictingBindingAllowed(t *testing.T) {
	f := newFixture(t)
	f.settings.AllowRebind = true
	f.filecoin.SetSourceChain(proverAddr, domain.ChainBinding{SourceChainID: alphaID, SourceChainName: "alpha", OracleAddress: strangerAddr})
	f.filecoin.SetSourceChain(proverAddr, domain.ChainBinding{SourceChainID: betaID, SourceChainName: "beta", OracleAddress: betaOracleAddr})

	run, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.NoError(t, err)

	assert.Equal(t, []BindingResult{
		{Binding: domain.ChainBinding{SourceChainID: alphaID, SourceChainName: "alpha", OracleAddress: alphaOracleAddr}, Action: BindingRebound},
		{Binding: domain.ChainBinding{SourceChainID: betaID, SourceChainName: "beta", OracleAddress: betaOracleAddr}, Action: BindingUnchanged},
	}, run.Bindings)

	batch := f.filecoin.Submitted()[0]
	assert.Equal(t, []string{"alpha"}, batch.Args[1])
	assert.Equal(t, alphaOracleAddr, f.sourceChain(t, alphaID).OracleAddress)
}

func TestTransactionFailures(t *testing.T) {
	t.Run("reverted binding", func(t *testing.T) {
		f := newFixture(t)
		f.filecoin.Revert[contracts.MethodSetSourceChains] = true

		run, err := f.run(t, PhaseConfigFilecoin, "filecoin")
		require.ErrorIs(t, err, domain.ErrTransaction)
		require.ErrorIs(t, err, chain.ErrReverted)

		var txErr *domain.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, contracts.MethodSetSourceChains, txErr.Method)
		assert.NotEqual(t, common.Hash{}, txErr.TxHash)

		requireRunError(t, err, StateBindingDestination)
		assert.Equal(t, []string{contracts.MethodSetSourceChains}, f.filecoin.Methods(), "no gas deposit after a failed binding")
		assert.Empty(t, run.Transactions)
	})

	t.Run("gas confirmation timeout", func(t *testing.T) {
		f := newFixture(t)
		f.filecoin.Timeout[contracts.MethodAddGasFunds] = true

		_, err := f.run(t, PhaseConfigFilecoin, "filecoin")
		require.ErrorIs(t, err, chain.ErrConfirmationTimeout)
		requireRunError(t, err, StateProvisioningGas)
	})

	t.Run("submission rejected", func(t *testing.T) {
		f := newFixture(t)
		f.alpha.SubmitErr[contracts.MethodSetSenderReceiver] = assert.AnError

		_, err := f.run(t, PhaseConfigSourceChain, "alpha")
		require.ErrorIs(t, err, domain.ErrTransaction)

		runErr := requireRunError(t, err, StateBindingSource)
		assert.Equal(t, "alpha", runErr.Chain)
		assert.Equal(t, []string{contracts.MethodSetOracle}, f.alpha.Methods())
	})

	t.Run("balance covers the deposit but not its fee", func(t *testing.T) {
		f := newFixture(t)
		f.filecoin.SetBalance(oneFIL)

		_, err := f.run(t, PhaseConfigFilecoin, "filecoin")
		require.ErrorIs(t, err, ErrInsufficientBalance)
		require.ErrorIs(t, err, domain.ErrTransaction)
		requireRunError(t, err, StateProvisioningGas)
		assert.NotContains(t, f.filecoin.Methods(), contracts.MethodAddGasFunds)
	})

	t.Run("balance covers the deposit and its fee", func(t *testing.T) {
		f := newFixture(t)
		f.filecoin.SetBalance(new(big.Int).Add(oneFIL, big.NewInt(chaintest.DefaultFee)))

		_, err := f.run(t, PhaseConfigFilecoin, "filecoin")
		require.NoError(t, err)
		assertAmount(t, oneFIL, f.filecoin.GasFunds(proverAddr, f.provider))
	})

	t.Run("insufficient balance", func(t *testing.T) {
		f := newFixture(t)
		f.filecoin.SetBalance(big.NewInt(1))

		_, err := f.run(t, PhaseConfigFilecoin, "filecoin")
		require.ErrorIs(t, err, ErrInsufficientBalance)
		requireRunError(t, err, StateProvisioningGas)
		assert.NotContains(t, f.filecoin.Methods(), contracts.MethodAddGasFunds)
	})
}

func TestVerificationMismatch(t *testing.T) {
	f := newFixture(t)
	f.filecoin.Drop[contracts.MethodSetSourceChains] = true

	run, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.ErrorIs(t, err, domain.ErrVerificationMismatch)
	requireRunError(t, err, StateVerifying)
	assert.Equal(t, StateFailed, run.State)
	assert.Len(t, run.Transactions, 2)
}

func TestChainIDMismatch(t *testing.T) {
	f := newFixture(t)
	f.filecoin = f.dialer.Add("filecoin", chaintest.New(1))

	_, err := f.run(t, PhaseConfigFilecoin, "filecoin")
	require.ErrorIs(t, err, domain.ErrConfiguration)
	requireRunError(t, err, StateDiscovering)
	assert.Empty(t, f.filecoin.Submitted())
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := configs.MustDefaultConfig()

	settings, err := SettingsFromConfig(cfg, false)
	require.NoError(t, err)
	require.NotNil(t, settings.Gas)
	assert.Equal(t, "t017840", settings.Gas.ProviderID.String())
	assertAmount(t, oneFIL, settings.Gas.Amount)
	assert.Equal(t, "DealClientAxl", settings.Contracts.Prover)

	settings, err = SettingsFromConfig(cfg, true)
	require.NoError(t, err)
	assert.Nil(t, settings.Gas)

	cfg.GasFunding.Amount = "0.5"
	settings, err = SettingsFromConfig(cfg, false)
	require.NoError(t, err)
	assertAmount(t, big.NewInt(5e17), settings.Gas.Amount)

	cfg.GasFunding.ProviderID = ""
	_, err = SettingsFromConfig(cfg, false)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}
