package registry

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fil-builders/onramp-configurator/configs"
)

var CMD = &cobra.Command{
	Use:   "networks",
	Short: "Print the chain descriptors of the selected network",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := New(configs.Values)
		if err != nil {
			return err
		}

		return r.WriteTable(cmd.OutOrStdout())
	},
}

func (r *Registry) WriteTable(out io.Writer) error {
	table := tablewriter.NewWriter(out)
	table.Header([]string{"Chain", "Role", "Chain ID", "RPC", "Gateway", "Gas Service"})
	for _, chain := range r.Chains() {
		row := []string{
			chain.Name,
			chain.Role(),
			fmt.Sprint(chain.ChainID),
			chain.RPCEndpoint,
			chain.GatewayAddress.Hex(),
			chain.GasServiceAddress.Hex(),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}

	return table.Render()
}
