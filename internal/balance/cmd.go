package balance

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/artifacts"
	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/registry"
)

var CMD = &cobra.Command{
	Use:   "balances",
	Short: "Print the signer balance on every declared chain and the prover gas funds",
	Long: `Balances checks that the signer can pay for a configuration run.

It prints the native balance of the signer on the destination and every
declared source chain, then the gas funds held by the destination prover
for gas-funding.provider-id when the prover is deployed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.Values
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.ValidateSigner(); err != nil {
			return err
		}

		reg, err := registry.New(cfg)
		if err != nil {
			return err
		}

		dialer, err := chain.DialerFromConfig(cfg)
		if err != nil {
			return err
		}

		store, closeStore, err := artifacts.Open(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		return Write(cmd.Context(), cmd.OutOrStdout(), NewChecker(dialer), reg, store, cfg)
	},
}

// Write renders the balance table followed by the gas funds line.
func Write(ctx context.Context, out io.Writer, checker *Checker, reg *registry.Registry, repo artifacts.Repository, cfg configs.Config) error {
	table := tablewriter.NewWriter(out)
	table.Header([]string{"Chain", "Role", "Signer", "Balance", "Raw"})
	for _, info := range checker.SignerBalances(ctx, reg.Chains()) {
		row := []string{info.Chain.Name, info.Chain.Role(), "-", "-", "-"}
		if info.Err != nil {
			row[3] = "error: " + info.Err.Error()
		} else {
			row[2] = info.Signer.Hex()
			row[3] = FormatAmount(info.Balance)
			row[4] = info.Balance.String()
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if cfg.GasFunding.ProviderID == "" {
		return nil
	}
	providerID, err := domain.NewProviderID(cfg.GasFunding.ProviderID)
	if err != nil {
		return &domain.ConfigurationError{Reason: "invalid gas-funding.provider-id", Err: err}
	}

	destination := reg.Destination()
	prover, err := repo.Resolve(ctx, destination.Name, cfg.Contracts.Prover)
	if errors.Is(err, domain.ErrMissingArtifact) {
		_, err = fmt.Fprintf(out, "%s: %s is not deployed, no gas funds to show\n", destination.Name, cfg.Contracts.Prover)
		return err
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, FormatGasFunds(checker.GasFunds(ctx, destination, prover.Address, providerID)))
	return err
}
