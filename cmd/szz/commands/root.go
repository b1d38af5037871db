// Package commands implements CLI command handlers for szz.
package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/szz/pkg/config"
	"github.com/Sumatoshi-tech/szz/pkg/observability"
	"github.com/Sumatoshi-tech/szz/pkg/version"
)

const (
	flagConfig  = "config"
	flagEnvFile = "env-file"
	flagNoColor = "no-color"
)

// NewRootCommand creates the szz root command with every subcommand except
// version, which main adds.
func NewRootCommand() *cobra.Command {
	return newRootCommand(NewRunCommand(), NewSearchCommand())
}

func newRootCommand(runCmd, searchCmd *cobra.Command) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "szz",
		Short: "SZZ - locate bug-introducing revisions from bug-fixing ones",
		Long: `szz traces the lines removed by bug-fixing revisions back through blame
and picks the revisions that most likely introduced each bug.

Commands:
  run       Annotate fix revisions and find their introducers
  split     Split an issue file into shards
  merge     Merge shard result directories
  search    Find bug-fixing revisions by commit message`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "config file (default: szz.yaml in . or $HOME)")
	flags.String(flagEnvFile, config.DefaultEnvFile, "dotenv file loaded before the environment")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", config.DefaultLogFormat, "log format: text or json")
	flags.String("otlp-endpoint", "", "OTLP gRPC endpoint for traces and metrics (empty disables export)")
	flags.String("metrics-addr", "", "serve /healthz and Prometheus /metrics at this address while running")
	flags.Bool(flagNoColor, false, "disable colored output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(NewSplitCommand())
	rootCmd.AddCommand(NewMergeCommand())
	rootCmd.AddCommand(searchCmd)

	return rootCmd
}

// session is the configuration and telemetry shared by one command invocation.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	runID     string
}

func newSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString(flagConfig)
	envFile, _ := flags.GetString(flagEnvFile)

	cfg, err := config.Load(config.LoadOptions{ConfigPath: configPath, EnvFile: envFile, Flags: flags})
	if err != nil {
		return nil, err
	}

	telemetry := cfg.Telemetry(version.Version)
	telemetry.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(telemetry)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()

	return &session{
		cfg:       cfg,
		providers: providers,
		logger:    providers.Logger.With("run_id", runID, "command", cmd.Name()),
		runID:     runID,
	}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.providers.Shutdown(ctx); err != nil {
		s.logger.WarnContext(ctx, "telemetry shutdown failed", "error", err)
	}
}

func noColor(cmd *cobra.Command) bool {
	value, _ := cmd.Flags().GetBool(flagNoColor)

	return value
}
