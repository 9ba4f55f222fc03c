package configure

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/artifacts"
	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/infra/filesystem/json"
	"github.com/fil-builders/onramp-configurator/internal/output"
	"github.com/fil-builders/onramp-configurator/internal/registry"
)

var CMD = &cobra.Command{
	Use:       "configure <ConfigFilecoin|ConfigSourceChain>",
	Short:     "Run a configuration phase against the target chain",
	Args:      cobra.ExactArgs(1),
	ValidArgs: phaseNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		phase, err := ParsePhase(args[0])
		if err != nil {
			return err
		}

		slog.With("phase", string(phase)).With("target", configs.Values.Target).Info("starting configure command. Validating config")

		if err := configs.Values.Validate(); err != nil {
			return err
		}
		if err := configs.Values.ValidateSigner(); err != nil {
			return err
		}

		skipGas, err := cmd.Flags().GetBool(flagSkipGas)
		if err != nil {
			return err
		}

		return execute(cmd.Context(), configs.Values, phase, skipGas)
	},
}

func execute(ctx context.Context, cfg configs.Config, phase Phase, skipGas bool) error {
	reg, err := registry.New(cfg)
	if err != nil {
		return err
	}

	settings, err := SettingsFromConfig(cfg, skipGas)
	if err != nil {
		return err
	}

	store, closeStore, err := artifacts.Open(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	dialer, err := chain.DialerFromConfig(cfg)
	if err != nil {
		return err
	}

	run, runErr := NewOrchestrator(reg, store, dialer, settings).Run(ctx, phase, cfg.Target)

	if err := output.NewGenerator(json.NewWriter()).Generate(cfg.ReportPath, run.Report()); err != nil {
		slog.With("err", err.Error()).Warn("failed to write run report")
	} else if cfg.ReportPath != "" {
		slog.With("path", cfg.ReportPath).Info("run report written")
	}

	if runErr != nil {
		return fmt.Errorf("configuration run %s failed: %w", run.ID, runErr)
	}

	return nil
}

func phaseNames() []string {
	names := make([]string, 0, len(Phases()))
	for _, p := range Phases() {
		names = append(names, string(p))
	}
	return names
}

// Usage lists the phases and their dependencies for help output.
func Usage() string {
	lines := make([]string, 0, len(Phases()))
	for _, p := range Phases() {
		lines = append(lines, fmt.Sprintf("%s (depends on %s)", p, p.Dependency()))
	}
	return strings.Join(lines, ", ")
}

func init() {
	CMD.Long = "Runs one configuration phase against the configured target chain.\nPhases: " + Usage()
}
