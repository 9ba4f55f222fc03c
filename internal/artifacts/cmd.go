package artifacts

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fil-builders/onramp-configurator/configs"
)

var CMD = &cobra.Command{
	Use:   "artifacts",
	Short: "Inspect and import deployment artifacts",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployment records and candidate source chains",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configs.Values.Validate(); err != nil {
			return err
		}

		store, closeStore, err := Open(configs.Values)
		if err != nil {
			return err
		}
		defer closeStore()

		return writeListing(cmd, store, cmd.OutOrStdout())
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy a hardhat-deploy directory into the configured artifact store",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		if from == "" {
			return fmt.Errorf("--from is required")
		}
		if err := configs.Values.Validate(); err != nil {
			return err
		}
		if configs.Values.ArtifactStore.Kind == configs.StoreKindFilesystem && configs.Values.DeploymentsDir == from {
			return fmt.Errorf("refusing to import '%s' into itself", from)
		}

		store, closeStore, err := Open(configs.Values)
		if err != nil {
			return err
		}
		defer closeStore()

		n, err := Import(cmd.Context(), OpenFilesystem(from, configs.Values), store)
		if err != nil {
			return err
		}

		slog.With("from", from).With("records", n).With("store", configs.Values.ArtifactStore.Kind).Info("artifacts imported")

		return nil
	},
}

func init() {
	importCmd.Flags().String("from", "", "hardhat-deploy deployments directory to import")
	CMD.AddCommand(listCmd)
	CMD.AddCommand(importCmd)
}

func writeListing(cmd *cobra.Command, repo Repository, out io.Writer) error {
	ctx := cmd.Context()

	chains, err := repo.ListChains(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header([]string{"Chain", "Contract", "Address", "Deploy Tx"})
	for _, chain := range chains {
		contracts, err := repo.ListContracts(ctx, chain)
		if err != nil {
			return err
		}
		for _, contract := range contracts {
			record, err := repo.Resolve(ctx, chain, contract)
			if err != nil {
				return err
			}
			tx := ""
			if record.DeployTxHash != nil {
				tx = record.DeployTxHash.Hex()
			}
			if err := table.Append([]string{chain, contract, record.Address.Hex(), tx}); err != nil {
				return err
			}
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	candidates, err := repo.ListCandidateSourceChains(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "candidate source chains: %s\n", strings.Join(candidates, ", "))

	return err
}
