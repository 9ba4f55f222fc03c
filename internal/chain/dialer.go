package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/domain"
)

type (
	// Dialer opens a Client for a chain descriptor.
	Dialer interface {
		Dial(ctx context.Context, chain domain.ChainDescriptor) (Client, error)
	}

	BackendFunc func(ctx context.Context, rpcURL string) (Backend, error)

	EthDialer struct {
		key     *ecdsa.PrivateKey
		opts    Options
		backend BackendFunc
	}
)

// ParsePrivateKey accepts a hex key with or without the 0x prefix.
func ParsePrivateKey(value string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

// DialerFromConfig builds an EthDialer for the configured wallet and transaction settings.
func DialerFromConfig(cfg configs.Config) (*EthDialer, error) {
	key, err := ParsePrivateKey(cfg.Wallet.PrivateKey)
	if err != nil {
		return nil, err
	}

	return NewEthDialer(key, Options{
		GasMultiplier:       cfg.Transactions.GasMultiplier,
		ConfirmationTimeout: cfg.Transactions.ConfirmationTimeout,
	}), nil
}

func NewEthDialer(key *ecdsa.PrivateKey, opts Options) *EthDialer {
	return &EthDialer{
		key:  key,
		opts: opts,
		backend: func(ctx context.Context, rpcURL string) (Backend, error) {
			return ethclient.DialContext(ctx, rpcURL)
		},
	}
}

// WithBackend replaces how RPC endpoints are dialed.
func (d *EthDialer) WithBackend(fn BackendFunc) *EthDialer {
	d.backend = fn
	return d
}

// Dial connects to the chain's RPC endpoint and checks that the node serves
// the declared chain id. A mismatch is a configuration error.
func (d *EthDialer) Dial(ctx context.Context, chain domain.ChainDescriptor) (Client, error) {
	backend, err := d.backend(ctx, chain.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s at %s: %w", chain.Name, chain.RPCEndpoint, err)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to get chain ID of %s: %w", chain.Name, err)
	}

	if !chainID.IsUint64() || chainID.Uint64() != chain.ChainID {
		backend.Close()
		return nil, domain.NewConfigurationError("node at %s reports chain id %s, but %s is declared as %d",
			chain.RPCEndpoint, chainID, chain.Name, chain.ChainID)
	}

	return NewEthClient(backend, d.key, chainID, d.opts), nil
}
