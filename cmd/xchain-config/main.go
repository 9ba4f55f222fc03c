package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/artifacts"
	"github.com/fil-builders/onramp-configurator/internal/balance"
	"github.com/fil-builders/onramp-configurator/internal/configure"
	"github.com/fil-builders/onramp-configurator/internal/logger"
	"github.com/fil-builders/onramp-configurator/internal/registry"
)

const appName = "xchain-config"

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Configures the Filecoin prover and source-chain bridge contracts after deployment",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Initialize(slog.LevelInfo)

		viper.SetConfigType("yaml")
		if err := viper.ReadConfig(strings.NewReader(configs.DefaultYAML())); err != nil {
			return errors.Join(err, errors.New("unable to read embedded default config"))
		}

		if err := mergeConfigFile(cmd); err != nil {
			return err
		}

		if err := viper.BindEnv("network", "NETWORK"); err != nil {
			return err
		}
		if err := viper.BindEnv("wallet.private-key", "DEPLOYER_PRIVATE_KEY"); err != nil {
			return err
		}

		if err := viper.Unmarshal(&configs.Values); err != nil {
			const errMsg = "unable to decode application config"
			slog.With("err", err.Error()).Error(errMsg)
			return errors.Join(err, errors.New(errMsg))
		}

		level, err := logger.ParseLevel(configs.Values.LogLevel)
		if err != nil {
			return err
		}
		logger.Initialize(level)

		slog.With("network", configs.Values.Network).
			With("target", configs.Values.Target).
			With("artifact_store", configs.Values.ArtifactStore.Kind).
			Debug("configuration loaded")

		return nil
	},
}

// mergeConfigFile overlays --config, or config.yaml from the usual places, on
// top of the embedded defaults. A missing config.yaml is not an error.
func mergeConfigFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		if execPath, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(execPath))
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
	}

	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			slog.Debug("no config file found, will rely on flags and defaults")
			return nil
		}
		const errMsg = "error reading config file"
		slog.With("err", err.Error()).Error(errMsg)
		return errors.Join(err, errors.New(errMsg))
	}

	slog.With("config_file", viper.ConfigFileUsed()).Debug("config file loaded")

	return nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file overriding the embedded defaults")
	rootCmd.PersistentFlags().String("network", "", "Network selector: testnet or mainnet (env NETWORK)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	for flag, key := range map[string]string{"network": "network", "log-level": "log-level"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func main() {
	rootCmd.AddCommand(configure.CMD)
	rootCmd.AddCommand(artifacts.CMD)
	rootCmd.AddCommand(registry.CMD)
	rootCmd.AddCommand(balance.CMD)

	if err := rootCmd.Execute(); err != nil {
		slog.With("err", err.Error()).Error("failed to execute root command")
		os.Exit(1)
	}
}
