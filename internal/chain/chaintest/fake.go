// Package chaintest provides an in-memory chain that executes the prover,
// bridge and on-ramp functions the configurator calls.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/domain"
)

type (
	sourceChain struct {
		name   string
		oracle common.Address
	}

	contractState struct {
		sourceChains map[uint64]sourceChain
		gasFunds     map[[32]byte]*big.Int
		sender       common.Address
		receiver     common.Address
		oracle       common.Address
	}

	pending struct {
		call     chain.Call
		reverted bool
	}

	// Chain is one fake chain. Every contract address gets its own state on first use.
	Chain struct {
		mu sync.Mutex

		id        uint64
		sender    common.Address
		balance   *big.Int
		contracts map[common.Address]*contractState
		pending   map[common.Hash]pending
		submitted []chain.Call
		nonce     uint64

		// SubmitErr fails Submit for the given method.
		SubmitErr map[string]error
		// Revert makes the receipt of the given method fail.
		Revert map[string]bool
		// Timeout makes WaitForConfirmation of the given method time out.
		Timeout map[string]bool
		// Drop leaves the state untouched for the given method while still confirming it.
		Drop map[string]bool
		// ReadErr fails Read for the given method.
		ReadErr map[string]error
		// Fee is what EstimateFee reports for every call.
		Fee *big.Int
	}
)

// DefaultFee is the fee in wei a new Chain reports for any call.
const DefaultFee = 1_000_000_000_000_000

func New(chainID uint64) *Chain {
	return &Chain{
		id:        chainID,
		sender:    crypto.PubkeyToAddress(mustKey().PublicKey),
		balance:   new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)),
		contracts: make(map[common.Address]*contractState),
		pending:   make(map[common.Hash]pending),
		SubmitErr: make(map[string]error),
		Revert:    make(map[string]bool),
		Timeout:   make(map[string]bool),
		Drop:      make(map[string]bool),
		ReadErr:   make(map[string]error),
		Fee:       big.NewInt(DefaultFee),
	}
}

// Submitted returns the calls accepted by Submit, in order.
func (c *Chain) Submitted() []chain.Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chain.Call(nil), c.submitted...)
}

// Methods returns the method names of the submitted calls.
func (c *Chain) Methods() []string {
	calls := c.Submitted()
	methods := make([]string, 0, len(calls))
	for _, call := range calls {
		methods = append(methods, call.Method)
	}
	return methods
}

func (c *Chain) SetBalance(balance *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance = new(big.Int).Set(balance)
}

// SetSourceChain seeds a binding on the prover at address.
func (c *Chain) SetSourceChain(address common.Address, binding domain.ChainBinding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state(address).sourceChains[binding.SourceChainID] = sourceChain{name: binding.SourceChainName, oracle: binding.OracleAddress}
}

func (c *Chain) SetSenderReceiver(address common.Address, pair domain.SenderReceiverPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state(address)
	s.sender, s.receiver = pair.Sender, pair.Receiver
}

func (c *Chain) SetOracle(address, oracle common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state(address).oracle = oracle
}

func (c *Chain) GasFunds(address common.Address, id domain.ProviderID) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.funds(address, id)
}

func (c *Chain) ChainID(context.Context) (uint64, error) {
	return c.id, nil
}

func (c *Chain) Sender() common.Address {
	return c.sender
}

func (c *Chain) Balance(context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balance), nil
}

func (c *Chain) Read(_ context.Context, call chain.Call) ([]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ReadErr[call.Method]; err != nil {
		return nil, err
	}

	s := c.state(call.Contract)
	switch call.Method {
	case "getSourceChain":
		id, err := argUint64(call.Args, 0)
		if err != nil {
			return nil, err
		}
		bound := s.sourceChains[id]
		return []any{bound.name, bound.oracle}, nil
	case "providerGasFunds":
		id, err := argBytes32(call.Args, 0)
		if err != nil {
			return nil, err
		}
		return []any{c.funds(call.Contract, id)}, nil
	case "sender":
		return []any{s.sender}, nil
	case "receiver":
		return []any{s.receiver}, nil
	case "oracle":
		return []any{s.oracle}, nil
	}

	return nil, fmt.Errorf("unknown view %s", call.Method)
}

func (c *Chain) EstimateFee(_ context.Context, call chain.Call) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.SubmitErr[call.Method]; err != nil {
		return nil, err
	}
	return new(big.Int).Set(c.Fee), nil
}

func (c *Chain) Submit(_ context.Context, call chain.Call) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.SubmitErr[call.Method]; err != nil {
		return common.Hash{}, err
	}

	c.nonce++
	hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("%d/%d/%s", c.id, c.nonce, call.Method)))
	c.submitted = append(c.submitted, call)

	if c.Revert[call.Method] || c.Drop[call.Method] {
		c.pending[hash] = pending{call: call, reverted: c.Revert[call.Method]}
		return hash, nil
	}

	if err := c.apply(call); err != nil {
		c.pending[hash] = pending{call: call, reverted: true}
		return hash, nil
	}
	c.pending[hash] = pending{call: call}

	return hash, nil
}

func (c *Chain) WaitForConfirmation(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, ok := c.pending[hash]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", hash.Hex())
	}
	if c.Timeout[tx.call.Method] {
		return nil, chain.ErrConfirmationTimeout
	}

	receipt := &types.Receipt{
		TxHash:      hash,
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: new(big.Int).SetUint64(c.nonce),
	}
	if tx.reverted {
		receipt.Status = types.ReceiptStatusFailed
		return receipt, chain.ErrReverted
	}

	return receipt, nil
}

func (c *Chain) Close() {}

func (c *Chain) apply(call chain.Call) error {
	s := c.state(call.Contract)

	switch call.Method {
	case "setSourceChains":
		if len(call.Args) != 3 {
			return fmt.Errorf("setSourceChains takes 3 arguments")
		}
		ids, ok1 := call.Args[0].([]*big.Int)
		names, ok2 := call.Args[1].([]string)
		oracles, ok3 := call.Args[2].([]common.Address)
		if !ok1 || !ok2 || !ok3 || len(ids) != len(names) || len(ids) != len(oracles) {
			return fmt.Errorf("malformed setSourceChains arguments")
		}
		for i := range ids {
			s.sourceChains[ids[i].Uint64()] = sourceChain{name: names[i], oracle: oracles[i]}
		}
	case "addGasFunds":
		id, err := argBytes32(call.Args, 0)
		if err != nil {
			return err
		}
		if call.Value == nil || call.Value.Sign() <= 0 || c.balance.Cmp(call.Value) < 0 {
			return fmt.Errorf("invalid deposit")
		}
		c.balance.Sub(c.balance, call.Value)
		s.gasFunds[id] = new(big.Int).Add(c.funds(call.Contract, id), call.Value)
	case "setSenderReceiver":
		sender, ok1 := arg[common.Address](call.Args, 0)
		receiver, ok2 := arg[common.Address](call.Args, 1)
		if !ok1 || !ok2 {
			return fmt.Errorf("malformed setSenderReceiver arguments")
		}
		s.sender, s.receiver = sender, receiver
	case "setOracle":
		oracle, ok := arg[common.Address](call.Args, 0)
		if !ok {
			return fmt.Errorf("malformed setOracle arguments")
		}
		s.oracle = oracle
	default:
		return fmt.Errorf("unknown method %s", call.Method)
	}

	return nil
}

func (c *Chain) state(address common.Address) *contractState {
	s, ok := c.contracts[address]
	if !ok {
		s = &contractState{
			sourceChains: make(map[uint64]sourceChain),
			gasFunds:     make(map[[32]byte]*big.Int),
		}
		c.contracts[address] = s
	}
	return s
}

func (c *Chain) funds(address common.Address, id [32]byte) *big.Int {
	if v, ok := c.state(address).gasFunds[id]; ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

func arg[T any](args []any, i int) (T, bool) {
	var zero T
	if i >= len(args) {
		return zero, false
	}
	v, ok := args[i].(T)
	return v, ok
}

func argUint64(args []any, i int) (uint64, error) {
	v, ok := arg[*big.Int](args, i)
	if !ok || !v.IsUint64() {
		return 0, fmt.Errorf("argument %d is not a uint256", i)
	}
	return v.Uint64(), nil
}

func argBytes32(args []any, i int) ([32]byte, error) {
	v, ok := arg[[32]byte](args, i)
	if !ok {
		return [32]byte{}, fmt.Errorf("argument %d is not a bytes32", i)
	}
	return v, nil
}
