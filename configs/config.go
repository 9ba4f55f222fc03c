package configs

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var Values Config

type (
	NetworkName string
	StoreKind   string

	Config struct {
		Network                 NetworkName                                `mapstructure:"network"`
		Target                  string                                     `mapstructure:"target"`
		LogLevel                string                                     `mapstructure:"log-level"`
		DeploymentsDir          string                                     `mapstructure:"deployments-dir"`
		ReportPath              string                                     `mapstructure:"report-path"`
		AllowConflictingUpdates bool                                       `mapstructure:"allow-conflicting-updates"`
		AxelarChainsConfig      string                                     `mapstructure:"axelar-chains-config"`
		Wallet                  Wallet                                     `mapstructure:"wallet"`
		Destination             Destination                                `mapstructure:"destination"`
		Contracts               Contracts                                  `mapstructure:"contracts"`
		ArtifactStore           ArtifactStore                              `mapstructure:"artifact-store"`
		GasFunding              GasFunding                                 `mapstructure:"gas-funding"`
		Transactions            Transactions                               `mapstructure:"transactions"`
		Networks                map[NetworkName]map[string]ChainDescriptor `mapstructure:"networks"`
	}

	Wallet struct {
		PrivateKey string `mapstructure:"private-key"`
	}

	Destination struct {
		Chain string `mapstructure:"chain"`
	}

	Contracts struct {
		Prover string `mapstructure:"prover"`
		OnRamp string `mapstructure:"on-ramp"`
		Bridge string `mapstructure:"bridge"`
	}

	ArtifactStore struct {
		Kind  StoreKind `mapstructure:"kind"`
		Redis Redis     `mapstructure:"redis"`
	}

	Redis struct {
		Host      string `mapstructure:"host"`
		Port      int    `mapstructure:"port"`
		KeyPrefix string `mapstructure:"key-prefix"`
	}

	GasFunding struct {
		Enabled    bool   `mapstructure:"enabled"`
		ProviderID string `mapstructure:"provider-id"`
		// Amount is expressed in FIL, e.g. "1" or "0.25"
		Amount string `mapstructure:"amount"`
	}

	Transactions struct {
		ConfirmationTimeout time.Duration `mapstructure:"confirmation-timeout"`
		GasMultiplier       float64       `mapstructure:"gas-multiplier"`
	}

	ChainDescriptor struct {
		ChainID           uint64 `mapstructure:"chain-id"`
		RPCURL            string `mapstructure:"rpc-url"`
		GatewayAddress    string `mapstructure:"gateway-address"`
		GasServiceAddress string `mapstructure:"gas-service-address"`
		SourceChain       bool   `mapstructure:"source-chain"`
	}
)

const (
	NetworkTestnet NetworkName = "testnet"
	NetworkMainnet NetworkName = "mainnet"

	StoreKindFilesystem StoreKind = "filesystem"
	StoreKindRedis      StoreKind = "redis"

	// attoFIL per FIL
	filDecimals = 18
)

// Validate checks every value that does not need the network table.
// The table itself is validated by the registry.
func (c *Config) Validate() error {
	var errs []error

	if c.Network != NetworkTestnet && c.Network != NetworkMainnet {
		errs = append(errs, fmt.Errorf("network must be either '%s' or '%s', got '%s'", NetworkTestnet, NetworkMainnet, c.Network))
	}
	if c.Destination.Chain == "" {
		errs = append(errs, errors.New("destination.chain is required"))
	}
	if c.Contracts.Prover == "" {
		errs = append(errs, errors.New("contracts.prover is required"))
	}
	if c.Contracts.OnRamp == "" {
		errs = append(errs, errors.New("contracts.on-ramp is required"))
	}
	if c.Contracts.Bridge == "" {
		errs = append(errs, errors.New("contracts.bridge is required"))
	}

	switch c.ArtifactStore.Kind {
	case StoreKindFilesystem:
		if c.DeploymentsDir == "" {
			errs = append(errs, errors.New("deployments-dir is required for the filesystem artifact store"))
		}
	case StoreKindRedis:
		if c.ArtifactStore.Redis.Host == "" {
			errs = append(errs, errors.New("artifact-store.redis.host is required"))
		}
		if c.ArtifactStore.Redis.Port == 0 {
			errs = append(errs, errors.New("artifact-store.redis.port is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("artifact-store.kind must be either '%s' or '%s'", StoreKindFilesystem, StoreKindRedis))
	}

	if c.GasFunding.Enabled {
		if c.GasFunding.ProviderID == "" {
			errs = append(errs, errors.New("gas-funding.provider-id is required"))
		}
		if _, err := c.GasFunding.AmountAtto(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Transactions.ConfirmationTimeout <= 0 {
		errs = append(errs, errors.New("transactions.confirmation-timeout must be greater than 0"))
	}
	if c.Transactions.GasMultiplier < 1 {
		errs = append(errs, errors.New("transactions.gas-multiplier must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// ValidateSigner checks the wallet settings needed to submit transactions
func (c *Config) ValidateSigner() error {
	if c.Wallet.PrivateKey == "" {
		return errors.New("wallet.private-key is required (or set DEPLOYER_PRIVATE_KEY)")
	}
	return nil
}

// AmountAtto converts the configured FIL amount into attoFIL.
func (g GasFunding) AmountAtto() (*big.Int, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(g.Amount))
	if err != nil {
		return nil, fmt.Errorf("gas-funding.amount '%s' is not a decimal number: %w", g.Amount, err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("gas-funding.amount must be positive, got '%s'", g.Amount)
	}

	atto := amount.Shift(filDecimals)
	if !atto.Equal(atto.Truncate(0)) {
		return nil, fmt.Errorf("gas-funding.amount '%s' has more than %d decimals", g.Amount, filDecimals)
	}

	return atto.BigInt(), nil
}

// IsValidAddress accepts empty values, which mean "not configured".
func IsValidAddress(value string) bool {
	return value == "" || common.IsHexAddress(value)
}
