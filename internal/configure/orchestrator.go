// Package configure drives a configuration run: discovery, binding, gas
// provisioning and verification, as an explicit forward-only state machine.
package configure

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/artifacts"
	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/logger"
	"github.com/fil-builders/onramp-configurator/internal/registry"
)

type (
	// Settings is the part of the configuration the orchestrator acts on.
	Settings struct {
		Contracts   configs.Contracts
		AllowRebind bool
		// Gas is nil when gas provisioning is disabled.
		Gas *domain.GasDeposit
	}

	Orchestrator struct {
		registry *registry.Registry
		repo     artifacts.Repository
		dialer   chain.Dialer
		settings Settings
		now      func() time.Time
		logger   *slog.Logger
	}
)

// SettingsFromConfig derives run settings. skipGas disables provisioning
// regardless of gas-funding.enabled.
func SettingsFromConfig(cfg configs.Config, skipGas bool) (Settings, error) {
	settings := Settings{
		Contracts:   cfg.Contracts,
		AllowRebind: cfg.AllowConflictingUpdates,
	}

	if !cfg.GasFunding.Enabled || skipGas {
		return settings, nil
	}

	providerID, err := domain.NewProviderID(cfg.GasFunding.ProviderID)
	if err != nil {
		return Settings{}, &domain.ConfigurationError{Reason: "invalid gas-funding.provider-id", Err: err}
	}
	amount, err := cfg.GasFunding.AmountAtto()
	if err != nil {
		return Settings{}, &domain.ConfigurationError{Reason: "invalid gas-funding.amount", Err: err}
	}
	settings.Gas = &domain.GasDeposit{ProviderID: providerID, Amount: amount}

	return settings, nil
}

func NewOrchestrator(reg *registry.Registry, repo artifacts.Repository, dialer chain.Dialer, settings Settings) *Orchestrator {
	return &Orchestrator{
		registry: reg,
		repo:     repo,
		dialer:   dialer,
		settings: settings,
		now:      time.Now,
		logger:   logger.Named("configure_orchestrator"),
	}
}

// Run executes phase against target. The returned Run is never nil; on
// failure it is in StateFailed and the error is a *RunError.
func (o *Orchestrator) Run(ctx context.Context, phase Phase, target string) (*Run, error) {
	run := newRun(phase, o.registry.Network(), o.now())
	rc := &runContext{run: run, destination: o.registry.Destination()}
	defer func() {
		if rc.client != nil {
			rc.client.Close()
		}
	}()

	log := o.logger.With("run_id", run.ID.String()).With("phase", string(phase)).With("target", target)
	log.Info("starting configuration run")

	descriptor, err := o.resolveTarget(phase, target)
	if err != nil {
		return o.fail(log, rc, target, err)
	}
	run.Target, rc.target = descriptor, descriptor

	for _, s := range o.plan(phase) {
		if err := run.transition(s.State(), o.now()); err != nil {
			return o.fail(log, rc, descriptor.Name, err)
		}
		log.With("state", s.State().String()).Debug("entering state")

		if err := s.Precondition(rc); err != nil {
			return o.fail(log, rc, descriptor.Name, err)
		}
		if err := s.Execute(ctx, rc); err != nil {
			return o.fail(log, rc, descriptor.Name, err)
		}
	}

	if err := run.transition(StateComplete, o.now()); err != nil {
		return o.fail(log, rc, descriptor.Name, err)
	}
	run.FinishedAt = o.now()

	log.With("transactions", len(run.Transactions)).With("duration", run.FinishedAt.Sub(run.StartedAt).String()).Info("configuration run complete")

	return run, nil
}

// resolveTarget rejects unknown phases and targets of the wrong role before any I/O.
func (o *Orchestrator) resolveTarget(phase Phase, target string) (domain.ChainDescriptor, error) {
	if _, ok := phases[phase]; !ok {
		return domain.ChainDescriptor{}, domain.NewConfigurationError("unknown phase '%s'", phase)
	}

	descriptor, err := o.registry.ResolveTarget(target)
	if err != nil {
		return domain.ChainDescriptor{}, err
	}

	destination := o.registry.Destination()
	if phase.TargetsDestination() && descriptor.Name != destination.Name {
		return domain.ChainDescriptor{}, domain.NewConfigurationError("phase %s must run against the destination chain '%s', got '%s'",
			phase, destination.Name, descriptor.Name)
	}
	if !phase.TargetsDestination() && !descriptor.IsSourceChain {
		return domain.ChainDescriptor{}, domain.NewConfigurationError("phase %s must run against a source chain, got '%s'",
			phase, descriptor.Name)
	}

	return descriptor, nil
}

func (o *Orchestrator) plan(phase Phase) []step {
	steps := []step{&discoverStep{o: o}}
	if phase.TargetsDestination() {
		steps = append(steps, &destinationBindingStep{o: o})
		if o.settings.Gas != nil {
			steps = append(steps, &gasStep{o: o, deposit: *o.settings.Gas})
		}
	} else {
		steps = append(steps, &sourceBindingStep{o: o})
	}

	return append(steps, &verifyStep{checks: slices.Clone(steps)})
}

// transact submits call on the target chain and waits for its receipt.
func (o *Orchestrator) transact(ctx context.Context, rc *runContext, call chain.Call) error {
	chainName := rc.target.Name
	txErr := func(hash common.Hash, err error) error {
		return &domain.TransactionError{ChainName: chainName, Contract: call.Contract, Method: call.Method, TxHash: hash, Err: err}
	}

	hash, err := rc.client.Submit(ctx, call)
	if err != nil {
		return txErr(common.Hash{}, err)
	}

	o.logger.With("chain", chainName).With("method", call.Method).With("tx_hash", hash.Hex()).Info("transaction sent, waiting for confirmation")

	receipt, err := rc.client.WaitForConfirmation(ctx, hash)
	if err != nil {
		return txErr(hash, err)
	}

	record := TransactionRecord{
		Chain:    chainName,
		Contract: call.Contract,
		Method:   call.Method,
		TxHash:   hash,
		GasUsed:  receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		record.Block = receipt.BlockNumber.Uint64()
	}
	rc.run.Transactions = append(rc.run.Transactions, record)

	return nil
}

func (o *Orchestrator) fail(log *slog.Logger, rc *runContext, chainName string, err error) (*Run, error) {
	run := rc.run
	runErr := &RunError{
		Phase: run.Phase,
		State: run.State,
		Chain: chainOf(err, chainName),
		Err:   err,
	}

	if tErr := run.transition(StateFailed, o.now()); tErr != nil {
		runErr.Err = fmt.Errorf("%w (%v)", err, tErr)
	}
	run.FinishedAt = o.now()
	run.Err = runErr

	log.With("state", runErr.State.String()).
		With("chain", runErr.Chain).
		With("kind", ErrorKind(err)).
		With("err", err.Error()).
		Error("configuration run failed")

	return run, runErr
}
