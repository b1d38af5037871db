package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/szz/pkg/issues"
	"github.com/Sumatoshi-tech/szz/pkg/observability"
	"github.com/Sumatoshi-tech/szz/pkg/pipeline"
)

// ErrNoIssueFile is returned when run is started without an issue file.
var ErrNoIssueFile = errors.New("no issue file given, use --issues")

// RunCommand holds the dependencies of the run command.
type RunCommand struct {
	open pipeline.Opener
}

// NewRunCommand creates the run command reading git repositories through libgit2.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithOpener(pipeline.OpenGit)
}

func newRunCommandWithOpener(open pipeline.Opener) *cobra.Command {
	rc := &RunCommand{open: open}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Annotate fix revisions and find their introducers",
		Long: `Run splits the issue file into one shard per worker. Each shard extracts
the fix diffs, builds annotation graphs and applies the bug finder, writing
commits, annotations and fix_and_introducers_pairs documents into
<results>/result<i>. Successful shards are merged into <results>.`,
		Args: cobra.NoArgs,
		RunE: rc.run,
	}

	for _, opt := range pipeline.RunOptions() {
		opt.Register(cmd.Flags())
	}

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	setColor(noColor(cmd))

	if s.cfg.Issues == "" {
		return ErrNoIssueFile
	}

	file, err := issues.Load(s.cfg.Issues)
	if err != nil {
		return err
	}

	settings, err := pipeline.SettingsFromConfig(s.cfg)
	if err != nil {
		return err
	}

	metrics, err := observability.NewMetrics(s.providers.Meter)
	if err != nil {
		return err
	}

	if addr := s.cfg.Observability.MetricsAddr; addr != "" {
		diagnostics, diagErr := observability.NewDiagnosticsServer(ctx, addr, s.providers.MetricsHandler, s.logger)
		if diagErr != nil {
			return diagErr
		}

		defer func() {
			if closeErr := diagnostics.Close(ctx); closeErr != nil {
				s.logger.WarnContext(ctx, "diagnostics server close failed", "error", closeErr)
			}
		}()

		s.logger.InfoContext(ctx, "serving diagnostics", "addr", diagnostics.Addr())
	}

	coordinator := &pipeline.Coordinator{
		Runner: &pipeline.Runner{
			Settings: settings,
			Open:     rc.open,
			Logger:   s.logger,
			Tracer:   s.providers.Tracer,
			Metrics:  metrics,
		},
		Workers: s.cfg.Workers,
		Results: s.cfg.Results,
	}

	s.logger.InfoContext(ctx, "run started",
		"repository", settings.Repository, "issues", len(file), "workers", s.cfg.Workers,
		"finder", settings.Finder.String(), "depth", settings.Depth)

	report, err := coordinator.Run(ctx, file)

	renderReport(cmd.OutOrStdout(), report, s.cfg.Results)

	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return nil
}
