// Package chain submits contract calls to an EVM node and waits for their receipts.
package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrReverted            = errors.New("transaction reverted")
	ErrConfirmationTimeout = errors.New("timed out waiting for confirmation")
)

type (
	// Call is one contract function invocation. Value is only set for payable functions.
	Call struct {
		Contract common.Address
		ABI      *abi.ABI
		Method   string
		Args     []any
		Value    *big.Int
	}

	// Client is bound to a single chain and a single signer.
	Client interface {
		ChainID(ctx context.Context) (uint64, error)
		Sender() common.Address
		Balance(ctx context.Context) (*big.Int, error)
		// Read executes a view call and returns the decoded outputs.
		Read(ctx context.Context, call Call) ([]any, error)
		// EstimateFee returns the maximum fee Submit would pay for the call.
		EstimateFee(ctx context.Context, call Call) (*big.Int, error)
		// Submit signs and broadcasts the call without waiting for inclusion.
		Submit(ctx context.Context, call Call) (common.Hash, error)
		// WaitForConfirmation blocks until the receipt is available. A reverted
		// receipt yields ErrReverted, an elapsed deadline ErrConfirmationTimeout.
		WaitForConfirmation(ctx context.Context, hash common.Hash) (*types.Receipt, error)
		Close()
	}
)
