// Package verification reads configuration back from chain and compares it
// with what a run intended to write. It never submits transactions.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/fil-builders/onramp-configurator/internal/contracts"
	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/logger"
)

type Checker struct {
	chainName string
	prover    *contracts.Prover
	bridge    *contracts.Bridge
	onRamp    *contracts.OnRamp
	logger    *slog.Logger
}

// NewDestinationChecker checks the prover on the destination chain.
func NewDestinationChecker(chainName string, prover *contracts.Prover) *Checker {
	return &Checker{
		chainName: chainName,
		prover:    prover,
		logger:    logger.Named("verification").With("chain", chainName),
	}
}

// NewSourceChecker checks the bridge and on-ramp on a source chain.
func NewSourceChecker(chainName string, bridge *contracts.Bridge, onRamp *contracts.OnRamp) *Checker {
	return &Checker{
		chainName: chainName,
		bridge:    bridge,
		onRamp:    onRamp,
		logger:    logger.Named("verification").With("chain", chainName),
	}
}

// VerifyDestinationBinding compares getSourceChain(chainID) with expected.
func (c *Checker) VerifyDestinationBinding(ctx context.Context, chainID uint64, expected domain.ChainBinding) error {
	actual, err := c.prover.GetSourceChain(ctx, chainID)
	if err != nil {
		return fmt.Errorf("failed to read source chain %d: %w", chainID, err)
	}

	c.logger.
		With("chain_id", chainID).
		With("chain_name", actual.SourceChainName).
		With("oracle", actual.OracleAddress.Hex()).
		Info("source chain read back")

	field := fmt.Sprintf("getSourceChain(%d)", chainID)
	if actual.SourceChainName != expected.SourceChainName {
		return c.mismatch(c.prover.Address(), field+".name", expected.SourceChainName, actual.SourceChainName)
	}
	if actual.OracleAddress != expected.OracleAddress {
		return c.mismatch(c.prover.Address(), field+".oracle", expected.OracleAddress.Hex(), actual.OracleAddress.Hex())
	}

	return nil
}

// VerifyDestinationBindings checks every binding in parallel and returns the
// first mismatch or read error.
func (c *Checker) VerifyDestinationBindings(ctx context.Context, expected []domain.ChainBinding) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, binding := range expected {
		g.Go(func() error {
			return c.VerifyDestinationBinding(ctx, binding.SourceChainID, binding)
		})
	}
	return g.Wait()
}

// VerifySourceBinding compares the bridge's sender and receiver with expected.
func (c *Checker) VerifySourceBinding(ctx context.Context, expected domain.SenderReceiverPair) error {
	actual, err := c.bridge.SenderReceiver(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sender/receiver on %s: %w", c.chainName, err)
	}

	c.logger.
		With("sender", actual.Sender.Hex()).
		With("receiver", actual.Receiver.Hex()).
		Info("bridge sender/receiver read back")

	if actual.Sender != expected.Sender {
		return c.mismatch(c.bridge.Address(), "sender", expected.Sender.Hex(), actual.Sender.Hex())
	}
	if actual.Receiver != expected.Receiver {
		return c.mismatch(c.bridge.Address(), "receiver", expected.Receiver.Hex(), actual.Receiver.Hex())
	}

	return nil
}

// VerifyOracle compares the on-ramp's oracle with the bridge address.
func (c *Checker) VerifyOracle(ctx context.Context) error {
	oracle, err := c.onRamp.Oracle(ctx)
	if err != nil {
		return fmt.Errorf("failed to read on-ramp oracle on %s: %w", c.chainName, err)
	}

	if oracle != c.bridge.Address() {
		return c.mismatch(c.onRamp.Address(), "oracle", c.bridge.Address().Hex(), oracle.Hex())
	}

	return nil
}

// VerifyGasDeposit requires the provider's funds to have grown by at least
// deposit since before was read. Other depositors may add more in between.
func (c *Checker) VerifyGasDeposit(ctx context.Context, providerID domain.ProviderID, before, deposit *big.Int) error {
	after, err := c.prover.ProviderGasFunds(ctx, providerID)
	if err != nil {
		return fmt.Errorf("failed to read gas funds of %s: %w", providerID, err)
	}

	want := new(big.Int).Add(before, deposit)

	c.logger.
		With("provider", providerID.String()).
		With("before", before.String()).
		With("after", after.String()).
		Info("gas funds read back")

	if after.Cmp(want) < 0 {
		return c.mismatch(c.prover.Address(), fmt.Sprintf("providerGasFunds(%s)", providerID), ">= "+want.String(), after.String())
	}

	return nil
}

func (c *Checker) mismatch(contract common.Address, field, expected, actual string) error {
	return &domain.VerificationMismatchError{
		ChainName: c.chainName,
		Contract:  contract,
		Field:     field,
		Expected:  expected,
		Actual:    actual,
	}
}
