package configure

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type (
	flagType interface {
		string | int | bool
	}

	// flagDef declares a command-line flag bound to a viper key.
	flagDef[T flagType] struct {
		name         string
		viperKey     string
		defaultValue T
		description  string
	}
)

var (
	stringFlags = []flagDef[string]{
		{"target", "target", "", "Chain to run against: 'destination', the destination chain name, or a source chain name"},
		{"deployments-dir", "deployments-dir", "", "hardhat-deploy deployments directory"},
		{"artifact-store", "artifact-store.kind", "", "Artifact store: filesystem or redis"},
		{"report-path", "report-path", "", "Where to write the YAML run report (empty disables it)"},
		{"provider-id", "gas-funding.provider-id", "", "Storage provider id the gas deposit is credited to"},
		{"gas-amount", "gas-funding.amount", "", "Gas deposit in FIL"},
	}

	boolFlags = []flagDef[bool]{
		{"allow-rebind", "allow-conflicting-updates", false, "Overwrite source chains already bound to a different oracle"},
	}
)

const flagSkipGas = "skip-gas"

func init() {
	if err := declareFlags(CMD, stringFlags); err != nil {
		panic(err)
	}
	if err := declareFlags(CMD, boolFlags); err != nil {
		panic(err)
	}
	CMD.Flags().Bool(flagSkipGas, false, "Do not add gas funds in the ConfigFilecoin phase")
}

// declareFlags declares multiple flags and binds them to viper configuration keys.
func declareFlags[T flagType](cmd *cobra.Command, flags []flagDef[T]) error {
	for _, flag := range flags {
		if err := declareFlag(cmd, flag.name, flag.viperKey, flag.defaultValue, flag.description); err != nil {
			return err
		}
	}
	return nil
}

// declareFlag declares a single flag and binds it to a viper configuration key.
// Unset flags do not override the config file, so defaults here are only shown in help.
func declareFlag[T flagType](cmd *cobra.Command, flagName, viperKey string, defaultValue T, description string) error {
	var zero T
	switch any(zero).(type) {
	case string:
		cmd.Flags().String(flagName, any(defaultValue).(string), description)
	case int:
		cmd.Flags().Int(flagName, any(defaultValue).(int), description)
	case bool:
		cmd.Flags().Bool(flagName, any(defaultValue).(bool), description)
	}
	return viper.BindPFlag(viperKey, cmd.Flags().Lookup(flagName))
}
