package verification

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fil-builders/onramp-configurator/internal/chain/chaintest"
	"github.com/fil-builders/onramp-configurator/internal/contracts"
	"github.com/fil-builders/onramp-configurator/internal/domain"
)

var (
	proverAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	onRampAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
	bridgeAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")
	otherAddr  = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func TestVerifyDestinationBinding(t *testing.T) {
	ctx := context.Background()
	fake := chaintest.New(314159)
	checker := NewDestinationChecker("filecoin", contracts.NewProver(fake, proverAddr))

	expected := domain.ChainBinding{SourceChainID: 43113, SourceChainName: "avalanche", OracleAddress: bridgeAddr}

	err := checker.VerifyDestinationBinding(ctx, 43113, expected)
	var mismatch *domain.VerificationMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "filecoin", mismatch.ChainName)
	assert.Equal(t, proverAddr, mismatch.Contract)
	assert.Equal(t, "getSourceChain(43113).name", mismatch.Field)

	fake.SetSourceChain(proverAddr, domain.ChainBinding{SourceChainID: 43113, SourceChainName: "avalanche", OracleAddress: otherAddr})
	err = checker.VerifyDestinationBinding(ctx, 43113, expected)
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "getSourceChain(43113).oracle", mismatch.Field)
	assert.Equal(t, bridgeAddr.Hex(), mismatch.Expected)
	assert.Equal(t, otherAddr.Hex(), mismatch.Actual)

	fake.SetSourceChain(proverAddr, expected)
	require.NoError(t, checker.VerifyDestinationBinding(ctx, 43113, expected))
}

func TestVerifyDestinationBindings(t *testing.T) {
	ctx := context.Background()
	fake := chaintest.New(314159)
	checker := NewDestinationChecker("filecoin", contracts.NewProver(fake, proverAddr))

	bindings := []domain.ChainBinding{
		{SourceChainID: 43113, SourceChainName: "avalanche", OracleAddress: bridgeAddr},
		{SourceChainID: 545, SourceChainName: "flow", OracleAddress: otherAddr},
	}
	fake.SetSourceChain(proverAddr, bindings[0])

	require.ErrorIs(t, checker.VerifyDestinationBindings(ctx, bindings), domain.ErrVerificationMismatch)

	fake.SetSourceChain(proverAddr, bindings[1])
	require.NoError(t, checker.VerifyDestinationBindings(ctx, bindings))

	fake.ReadErr[contracts.MethodGetSourceChain] = errors.New("rpc down")
	err := checker.VerifyDestinationBindings(ctx, bindings)
	require.ErrorContains(t, err, "rpc down")
	assert.NotErrorIs(t, err, domain.ErrVerificationMismatch)
}

func TestVerifySourceBinding(t *testing.T) {
	ctx := context.Background()
	fake := chaintest.New(43113)
	checker := NewSourceChecker("avalanche", contracts.NewBridge(fake, bridgeAddr), contracts.NewOnRamp(fake, onRampAddr))

	expected := domain.SenderReceiverPair{Sender: proverAddr, Receiver: onRampAddr}

	fake.SetSenderReceiver(bridgeAddr, domain.SenderReceiverPair{Sender: proverAddr, Receiver: otherAddr})
	err := checker.VerifySourceBinding(ctx, expected)
	var mismatch *domain.VerificationMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "receiver", mismatch.Field)
	assert.Equal(t, "avalanche", mismatch.ChainName)
	assert.Equal(t, bridgeAddr, mismatch.Contract)

	fake.SetSenderReceiver(bridgeAddr, expected)
	require.NoError(t, checker.VerifySourceBinding(ctx, expected))

	fake.ReadErr[contracts.MethodSender] = errors.New("rpc down")
	require.ErrorContains(t, checker.VerifySourceBinding(ctx, expected), "failed to read sender/receiver on avalanche")
	delete(fake.ReadErr, contracts.MethodSender)

	require.ErrorIs(t, checker.VerifyOracle(ctx), domain.ErrVerificationMismatch)
	fake.SetOracle(onRampAddr, bridgeAddr)
	require.NoError(t, checker.VerifyOracle(ctx))
}

func TestVerifyGasDeposit(t *testing.T) {
	ctx := context.Background()
	fake := chaintest.New(314159)
	prover := contracts.NewProver(fake, proverAddr)
	checker := NewDestinationChecker("filecoin", prover)

	provider, err := domain.NewProviderID("t017840")
	require.NoError(t, err)
	deposit := big.NewInt(1e18)

	err = checker.VerifyGasDeposit(ctx, provider, big.NewInt(0), deposit)
	require.ErrorIs(t, err, domain.ErrVerificationMismatch)

	hash, err := fake.Submit(ctx, prover.AddGasFundsCall(domain.GasDeposit{ProviderID: provider, Amount: deposit}))
	require.NoError(t, err)
	_, err = fake.WaitForConfirmation(ctx, hash)
	require.NoError(t, err)

	require.NoError(t, checker.VerifyGasDeposit(ctx, provider, big.NewInt(0), deposit))
	// A concurrent top-up by someone else still satisfies the check.
	require.NoError(t, checker.VerifyGasDeposit(ctx, provider, big.NewInt(0), big.NewInt(1)))
	require.ErrorIs(t, checker.VerifyGasDeposit(ctx, provider, big.NewInt(1), deposit), domain.ErrVerificationMismatch)
}
