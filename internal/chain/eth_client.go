package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fil-builders/onramp-configurator/internal/logger"
)

type (
	// Backend is the subset of *ethclient.Client the client needs.
	Backend interface {
		bind.DeployBackend
		ChainID(ctx context.Context) (*big.Int, error)
		PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
		SuggestGasTipCap(ctx context.Context) (*big.Int, error)
		HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
		EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
		SendTransaction(ctx context.Context, tx *types.Transaction) error
		CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
		BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
		Close()
	}

	Options struct {
		GasMultiplier       float64
		ConfirmationTimeout time.Duration
	}

	EthClient struct {
		backend Backend
		key     *ecdsa.PrivateKey
		from    common.Address
		chainID *big.Int
		opts    Options
		logger  *slog.Logger
	}
)

// NewEthClient binds backend to the signer. chainID must be the id the node reported.
func NewEthClient(backend Backend, key *ecdsa.PrivateKey, chainID *big.Int, opts Options) *EthClient {
	from := crypto.PubkeyToAddress(key.PublicKey)
	if opts.GasMultiplier < 1 {
		opts.GasMultiplier = 1
	}

	return &EthClient{
		backend: backend,
		key:     key,
		from:    from,
		chainID: chainID,
		opts:    opts,
		logger:  logger.Named("eth_client").With("chain_id", chainID.String()).With("from", from.Hex()),
	}
}

func (c *EthClient) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return id.Uint64(), nil
}

func (c *EthClient) Sender() common.Address {
	return c.from
}

func (c *EthClient) Balance(ctx context.Context) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, c.from, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", c.from.Hex(), err)
	}
	return balance, nil
}

func (c *EthClient) Read(ctx context.Context, call Call) ([]any, error) {
	data, err := call.ABI.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", call.Method, err)
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		From: c.from,
		To:   &call.Contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s failed: %w", call.Method, call.Contract.Hex(), err)
	}

	values, err := call.ABI.Unpack(call.Method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", call.Method, err)
	}

	return values, nil
}

// txParams holds what Submit and EstimateFee both derive from the node.
type txParams struct {
	data   []byte
	value  *big.Int
	tipCap *big.Int
	feeCap *big.Int
	gas    uint64
}

func (c *EthClient) prepare(ctx context.Context, call Call) (txParams, error) {
	data, err := call.ABI.Pack(call.Method, call.Args...)
	if err != nil {
		return txParams{}, fmt.Errorf("failed to pack %s call: %w", call.Method, err)
	}

	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}

	tipCap, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return txParams{}, fmt.Errorf("failed to suggest gas tip cap: %w", err)
	}

	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return txParams{}, fmt.Errorf("failed to get latest header: %w", err)
	}

	// feeCap = 2*baseFee + tip, the same headroom geth's transactor uses
	feeCap := new(big.Int).Set(tipCap)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      c.from,
		To:        &call.Contract,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Value:     value,
		Data:      data,
	})
	if err != nil {
		return txParams{}, fmt.Errorf("failed to estimate gas for %s: %w", call.Method, err)
	}

	return txParams{
		data:   data,
		value:  value,
		tipCap: tipCap,
		feeCap: feeCap,
		gas:    uint64(float64(gas) * c.opts.GasMultiplier),
	}, nil
}

// EstimateFee returns the most the call can cost in fees: gas limit times fee cap.
func (c *EthClient) EstimateFee(ctx context.Context, call Call) (*big.Int, error) {
	params, err := c.prepare(ctx, call)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(params.gas), params.feeCap), nil
}

func (c *EthClient) Submit(ctx context.Context, call Call) (common.Hash, error) {
	params, err := c.prepare(ctx, call)
	if err != nil {
		return common.Hash{}, err
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: params.tipCap,
		GasFeeCap: params.feeCap,
		Gas:       params.gas,
		To:        &call.Contract,
		Value:     params.value,
		Data:      params.data,
	})

	signed, err := types.SignTx(tx, types.NewLondonSigner(c.chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign %s transaction: %w", call.Method, err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send %s transaction: %w", call.Method, err)
	}

	c.logger.
		With("method", call.Method).
		With("contract", call.Contract.Hex()).
		With("tx_hash", signed.Hash().Hex()).
		With("nonce", nonce).
		With("gas", params.gas).
		Info("transaction submitted")

	return signed.Hash(), nil
}

// WaitForConfirmation blocks until the transaction is mined or the
// confirmation timeout elapses.
func (c *EthClient) WaitForConfirmation(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.opts.ConfirmationTimeout)
	defer cancel()

	log := c.logger.With("tx_hash", hash.Hex())

	receipt, err := bind.WaitMinedHash(waitCtx, c.backend, hash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrConfirmationTimeout, c.opts.ConfirmationTimeout)
		}
		return nil, fmt.Errorf("failed to wait for transaction: %w", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: status %d in block %s", ErrReverted, receipt.Status, receipt.BlockNumber)
	}
	log.With("block", receipt.BlockNumber).With("gas_used", receipt.GasUsed).Info("transaction confirmed")

	return receipt, nil
}

func (c *EthClient) Close() {
	c.backend.Close()
}
