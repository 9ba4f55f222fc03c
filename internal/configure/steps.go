package configure

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/contracts"
	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/verification"
)

type (
	// step is one state of the run. Precondition checks what earlier steps must
	// have established, Postcondition re-reads on chain what Execute wrote and
	// is invoked by the verify step.
	step interface {
		State() State
		Precondition(rc *runContext) error
		Execute(ctx context.Context, rc *runContext) error
		Postcondition(ctx context.Context, rc *runContext) error
	}

	sourceOracle struct {
		chain  domain.ChainDescriptor
		bridge domain.DeploymentRecord
	}

	// runContext carries what one step learns to the next.
	runContext struct {
		run         *Run
		destination domain.ChainDescriptor
		target      domain.ChainDescriptor

		proverRecord domain.DeploymentRecord
		onRampRecord domain.DeploymentRecord
		bridgeRecord domain.DeploymentRecord
		oracles      []sourceOracle

		client  chain.Client
		prover  *contracts.Prover
		bridge  *contracts.Bridge
		onRamp  *contracts.OnRamp
		checker *verification.Checker

		bindings  []domain.ChainBinding
		pair      domain.SenderReceiverPair
		gasBefore *big.Int
	}
)

var errPrecondition = errors.New("precondition not met")

func precondition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errPrecondition, fmt.Sprintf(format, args...))
}

// discoverStep resolves every record the phase needs and dials the target chain.
type discoverStep struct {
	o *Orchestrator
}

func (s *discoverStep) State() State { return StateDiscovering }

func (s *discoverStep) Precondition(rc *runContext) error {
	if rc.target.Name == "" {
		return precondition("run target not resolved")
	}
	return nil
}

func (s *discoverStep) Execute(ctx context.Context, rc *runContext) error {
	var err error
	if rc.run.Phase.TargetsDestination() {
		err = s.discoverDestination(ctx, rc)
	} else {
		err = s.discoverSource(ctx, rc)
	}
	if err != nil {
		return err
	}

	client, err := s.o.dialer.Dial(ctx, rc.target)
	if err != nil {
		return err
	}
	rc.client = client
	rc.run.Sender = client.Sender()

	if balance, err := client.Balance(ctx); err == nil {
		s.o.logger.With("chain", rc.target.Name).With("sender", client.Sender().Hex()).With("balance", balance.String()).Info("signer connected")
	}

	if rc.run.Phase.TargetsDestination() {
		rc.prover = contracts.NewProver(client, rc.proverRecord.Address)
		rc.checker = verification.NewDestinationChecker(rc.target.Name, rc.prover)
	} else {
		rc.bridge = contracts.NewBridge(client, rc.bridgeRecord.Address)
		rc.onRamp = contracts.NewOnRamp(client, rc.onRampRecord.Address)
		rc.checker = verification.NewSourceChecker(rc.target.Name, rc.bridge, rc.onRamp)
	}

	return nil
}

func (s *discoverStep) discoverDestination(ctx context.Context, rc *runContext) error {
	names := s.o.settings.Contracts

	prover, err := s.o.repo.Resolve(ctx, rc.destination.Name, names.Prover)
	if err != nil {
		return s.dependency(rc, err)
	}
	rc.proverRecord = prover

	candidates, err := s.o.repo.ListCandidateSourceChains(ctx)
	if err != nil {
		return fmt.Errorf("failed to list candidate source chains: %w", err)
	}
	if len(candidates) == 0 {
		return domain.NewConfigurationError("no valid source chain deployments found")
	}

	for _, name := range candidates {
		descriptor, err := s.o.registry.Describe(name)
		if err != nil {
			return err
		}
		if !descriptor.IsSourceChain {
			return domain.NewConfigurationError("chain '%s' has source deployments but is not declared as a source chain", name)
		}

		bridge, err := s.o.repo.Resolve(ctx, name, names.Bridge)
		if err != nil {
			return err
		}

		rc.oracles = append(rc.oracles, sourceOracle{chain: descriptor, bridge: bridge})
	}

	s.o.logger.With("source_chains", candidates).Info("detected source chains")

	return nil
}

func (s *discoverStep) discoverSource(ctx context.Context, rc *runContext) error {
	names := s.o.settings.Contracts

	// the destination must be deployed before any source transaction is built
	prover, err := s.o.repo.Resolve(ctx, rc.destination.Name, names.Prover)
	if err != nil {
		return err
	}

	onRamp, err := s.o.repo.Resolve(ctx, rc.target.Name, names.OnRamp)
	if err != nil {
		return s.dependency(rc, err)
	}
	bridge, err := s.o.repo.Resolve(ctx, rc.target.Name, names.Bridge)
	if err != nil {
		return s.dependency(rc, err)
	}

	rc.onRampRecord, rc.bridgeRecord, rc.proverRecord = onRamp, bridge, prover

	return nil
}

func (s *discoverStep) dependency(rc *runContext, err error) error {
	if errors.Is(err, domain.ErrMissingArtifact) {
		return &DependencyError{Phase: rc.run.Phase, Dependency: rc.run.Phase.Dependency(), Err: err}
	}
	return err
}

func (s *discoverStep) Postcondition(context.Context, *runContext) error { return nil }

// destinationBindingStep registers every candidate source chain on the prover
// with a single setSourceChains call.
type destinationBindingStep struct {
	o *Orchestrator
}

func (s *destinationBindingStep) State() State { return StateBindingDestination }

func (s *destinationBindingStep) Precondition(rc *runContext) error {
	if rc.prover == nil {
		return precondition("destination prover not resolved")
	}
	if len(rc.oracles) == 0 {
		return precondition("no source chains discovered")
	}
	return nil
}

func (s *destinationBindingStep) Execute(ctx context.Context, rc *runContext) error {
	rc.bindings = make([]domain.ChainBinding, 0, len(rc.oracles))
	for _, oracle := range rc.oracles {
		rc.bindings = append(rc.bindings, domain.ChainBinding{
			SourceChainID:   oracle.chain.ChainID,
			SourceChainName: oracle.chain.Name,
			OracleAddress:   oracle.bridge.Address,
		})
	}

	current := make([]domain.ChainBinding, len(rc.bindings))
	g, gctx := errgroup.WithContext(ctx)
	for i, binding := range rc.bindings {
		g.Go(func() error {
			existing, err := rc.prover.GetSourceChain(gctx, binding.SourceChainID)
			if err != nil {
				return fmt.Errorf("failed to read source chain %d: %w", binding.SourceChainID, err)
			}
			current[i] = existing
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var (
		pending []domain.ChainBinding
		results = make([]BindingResult, 0, len(rc.bindings))
	)
	for i, binding := range rc.bindings {
		log := s.o.logger.With("source_chain", binding.SourceChainName).With("chain_id", binding.SourceChainID)

		switch {
		case current[i].Equal(binding):
			log.Info("source chain already bound, skipping")
			results = append(results, BindingResult{Binding: binding, Action: BindingUnchanged})
		case current[i].IsZero():
			log.With("oracle", binding.OracleAddress.Hex()).Info("configuring prover for source chain")
			pending = append(pending, binding)
			results = append(results, BindingResult{Binding: binding, Action: BindingSubmitted})
		case !s.o.settings.AllowRebind:
			return &domain.ConflictingBindingError{Existing: current[i], Requested: binding}
		default:
			log.With("existing", current[i].String()).With("requested", binding.String()).Warn("overwriting conflicting source chain binding")
			pending = append(pending, binding)
			results = append(results, BindingResult{Binding: binding, Action: BindingRebound})
		}
	}
	rc.run.Bindings = results

	if len(pending) == 0 {
		s.o.logger.Info("all source chains already bound, no transaction needed")
		return nil
	}

	return s.o.transact(ctx, rc, rc.prover.SetSourceChainsCall(pending))
}

func (s *destinationBindingStep) Postcondition(ctx context.Context, rc *runContext) error {
	return rc.checker.VerifyDestinationBindings(ctx, rc.bindings)
}

// sourceBindingStep points the on-ramp at the bridge and the bridge at the
// prover and on-ramp.
type sourceBindingStep struct {
	o *Orchestrator
}

func (s *sourceBindingStep) State() State { return StateBindingSource }

func (s *sourceBindingStep) Precondition(rc *runContext) error {
	if rc.bridge == nil || rc.onRamp == nil {
		return precondition("source contracts not resolved")
	}
	if rc.proverRecord.Address == (common.Address{}) {
		return precondition("destination prover not resolved")
	}
	return nil
}

func (s *sourceBindingStep) Execute(ctx context.Context, rc *runContext) error {
	log := s.o.logger.With("chain", rc.target.Name)

	oracle, err := rc.onRamp.Oracle(ctx)
	if err != nil {
		return fmt.Errorf("failed to read on-ramp oracle: %w", err)
	}
	if oracle == rc.bridge.Address() {
		log.With("oracle", oracle.Hex()).Info("on-ramp oracle already set, skipping")
	} else {
		log.With("on_ramp", rc.onRamp.Address().Hex()).With("oracle", rc.bridge.Address().Hex()).Info("configuring on-ramp oracle")
		if err := s.o.transact(ctx, rc, rc.onRamp.SetOracleCall(rc.bridge.Address())); err != nil {
			return err
		}
	}

	rc.pair = domain.SenderReceiverPair{Sender: rc.proverRecord.Address, Receiver: rc.onRamp.Address()}
	rc.run.Source = &SourceResult{OnRamp: rc.onRamp.Address(), Bridge: rc.bridge.Address(), Pair: rc.pair}

	current, err := rc.bridge.SenderReceiver(ctx)
	if err != nil {
		return fmt.Errorf("failed to read bridge sender/receiver: %w", err)
	}
	if current.Equal(rc.pair) {
		log.Info("bridge sender/receiver already set, skipping")
		return nil
	}
	if current != (domain.SenderReceiverPair{}) {
		log.With("sender", current.Sender.Hex()).With("receiver", current.Receiver.Hex()).Warn("overwriting bridge sender/receiver")
	}

	log.With("bridge", rc.bridge.Address().Hex()).
		With("sender", rc.pair.Sender.Hex()).
		With("receiver", rc.pair.Receiver.Hex()).
		Info("configuring bridge sender/receiver")

	return s.o.transact(ctx, rc, rc.bridge.SetSenderReceiverCall(rc.pair))
}

func (s *sourceBindingStep) Postcondition(ctx context.Context, rc *runContext) error {
	if err := rc.checker.VerifyOracle(ctx); err != nil {
		return err
	}
	return rc.checker.VerifySourceBinding(ctx, rc.pair)
}

// gasStep tops up the prover's gas funds for one provider. Deposits add up.
type gasStep struct {
	o       *Orchestrator
	deposit domain.GasDeposit
}

func (s *gasStep) State() State { return StateProvisioningGas }

func (s *gasStep) Precondition(rc *runContext) error {
	if rc.prover == nil {
		return precondition("destination prover not resolved")
	}
	if s.deposit.Amount == nil || s.deposit.Amount.Sign() <= 0 {
		return precondition("gas deposit amount must be positive")
	}
	return nil
}

func (s *gasStep) Execute(ctx context.Context, rc *runContext) error {
	call := rc.prover.AddGasFundsCall(s.deposit)
	txErr := func(err error) error {
		return &domain.TransactionError{
			ChainName: rc.target.Name,
			Contract:  rc.prover.Address(),
			Method:    contracts.MethodAddGasFunds,
			Err:       err,
		}
	}

	balance, err := rc.client.Balance(ctx)
	if err != nil {
		return err
	}
	if balance.Cmp(s.deposit.Amount) < 0 {
		return txErr(fmt.Errorf("%w: signer holds %s, deposit needs %s", ErrInsufficientBalance, balance, s.deposit.Amount))
	}

	// the deposit and the fee of the deposit transaction are both paid from the signer
	fee, err := rc.client.EstimateFee(ctx, call)
	if err != nil {
		return txErr(err)
	}
	if needed := new(big.Int).Add(s.deposit.Amount, fee); balance.Cmp(needed) < 0 {
		return txErr(fmt.Errorf("%w: signer holds %s, deposit plus fee needs %s", ErrInsufficientBalance, balance, needed))
	}

	before, err := rc.prover.ProviderGasFunds(ctx, s.deposit.ProviderID)
	if err != nil {
		return fmt.Errorf("failed to read gas funds: %w", err)
	}
	rc.gasBefore = before

	s.o.logger.
		With("provider", s.deposit.ProviderID.String()).
		With("amount", s.deposit.Amount.String()).
		With("before", before.String()).
		Info("adding gas funds for axelar gas service")

	if err := s.o.transact(ctx, rc, call); err != nil {
		return err
	}

	after, err := rc.prover.ProviderGasFunds(ctx, s.deposit.ProviderID)
	if err != nil {
		return fmt.Errorf("failed to read gas funds: %w", err)
	}
	rc.run.Gas = &GasResult{Deposit: s.deposit, Before: before, After: after}

	return nil
}

func (s *gasStep) Postcondition(ctx context.Context, rc *runContext) error {
	return rc.checker.VerifyGasDeposit(ctx, s.deposit.ProviderID, rc.gasBefore, s.deposit.Amount)
}

// verifyStep runs the postconditions of the steps that ran before it.
type verifyStep struct {
	checks []step
}

func (s *verifyStep) State() State { return StateVerifying }

func (s *verifyStep) Precondition(rc *runContext) error {
	if rc.checker == nil {
		return precondition("no verification checker")
	}
	return nil
}

func (s *verifyStep) Execute(ctx context.Context, rc *runContext) error {
	for _, check := range s.checks {
		if err := check.Postcondition(ctx, rc); err != nil {
			return err
		}
	}
	return nil
}

func (s *verifyStep) Postcondition(context.Context, *runContext) error { return nil }
