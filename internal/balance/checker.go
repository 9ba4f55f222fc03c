package balance

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/contracts"
	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/logger"
)

const (
	// Native currencies of every supported chain use 18 decimals.
	nativeDecimals = 18

	// at most this many RPC endpoints are dialled at once
	defaultDialLimit = 4
)

// Checker reads signer balances and prover gas funds
type Checker struct {
	dialer    chain.Dialer
	dialLimit int
	logger    *slog.Logger
}

func NewChecker(dialer chain.Dialer) *Checker {
	return &Checker{
		dialer:    dialer,
		dialLimit: defaultDialLimit,
		logger:    logger.Named("balance_checker"),
	}
}

// Info contains the signer balance on one chain
type Info struct {
	Chain   domain.ChainDescriptor
	Signer  common.Address
	Balance *big.Int
	Err     error
}

// GasFundsInfo contains the prover gas funds of one provider
type GasFundsInfo struct {
	Chain      string
	Prover     common.Address
	ProviderID domain.ProviderID
	Funds      *big.Int
	Err        error
}

// SignerBalances queries the chains concurrently, dialling at most dialLimit
// at a time. A failing chain does not stop the others, its error is kept in
// the returned Info.
func (c *Checker) SignerBalances(ctx context.Context, chains []domain.ChainDescriptor) []Info {
	infos := make([]Info, len(chains))

	var g errgroup.Group
	g.SetLimit(c.dialLimit)
	for i, descriptor := range chains {
		g.Go(func() error {
			infos[i] = c.signerBalance(ctx, descriptor)
			return nil
		})
	}
	// per-chain failures live in infos, the group itself never fails
	_ = g.Wait()

	return infos
}

func (c *Checker) signerBalance(ctx context.Context, descriptor domain.ChainDescriptor) Info {
	info := Info{Chain: descriptor}

	client, err := c.dialer.Dial(ctx, descriptor)
	if err != nil {
		info.Err = err
		c.logger.With("chain", descriptor.Name).With("err", err.Error()).Warn("balance query failed")
		return info
	}
	defer client.Close()

	info.Signer = client.Sender()
	info.Balance, info.Err = client.Balance(ctx)
	if info.Err != nil {
		info.Err = fmt.Errorf("failed to get balance: %w", info.Err)
	}

	return info
}

// GasFunds reads providerGasFunds(id) on the prover deployed at address.
func (c *Checker) GasFunds(ctx context.Context, destination domain.ChainDescriptor, prover common.Address, id domain.ProviderID) GasFundsInfo {
	info := GasFundsInfo{Chain: destination.Name, Prover: prover, ProviderID: id}

	client, err := c.dialer.Dial(ctx, destination)
	if err != nil {
		info.Err = err
		return info
	}
	defer client.Close()

	info.Funds, info.Err = contracts.NewProver(client, prover).ProviderGasFunds(ctx, id)

	return info
}

// FormatAmount renders an 18-decimals amount with four fractional digits.
func FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "-"
	}
	return decimal.NewFromBigInt(amount, -nativeDecimals).StringFixed(4)
}

// FormatGasFunds formats gas funds for display
func FormatGasFunds(info GasFundsInfo) string {
	if info.Err != nil {
		return fmt.Sprintf("%s: gas funds query failed for provider %s (%v)", info.Chain, info.ProviderID, info.Err)
	}

	return fmt.Sprintf("%s: gas funds of provider %s on prover %s: %s FIL (%s attoFIL)",
		info.Chain, info.ProviderID, info.Prover.Hex(), FormatAmount(info.Funds), info.Funds.String())
}
