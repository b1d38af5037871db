package commands

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/szz/pkg/pipeline"
	"github.com/Sumatoshi-tech/szz/pkg/results"
	"github.com/Sumatoshi-tech/szz/pkg/shard"
)

const defaultShardDir = "shards"

// ErrNoResultDirs is returned when merge has neither directories nor a shard count.
var ErrNoResultDirs = errors.New("no result directories given, pass them as arguments or use --shards")

// registerRunOptions registers the named run options on flags.
func registerRunOptions(flags *pflag.FlagSet, names ...string) {
	for _, opt := range pipeline.RunOptions() {
		if slices.Contains(names, opt.Flag) {
			opt.Register(flags)
		}
	}
}

// NewSplitCommand creates the split command.
func NewSplitCommand() *cobra.Command {
	var (
		count int
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "split <issue-file>",
		Short: "Split an issue file into shards",
		Long: `Split writes fix_and_introducers_pairs_<i>.json files into a new directory.
Shard i receives len/n issues plus one more while i < len%n, in issue key order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			if count == 0 {
				count = s.cfg.Workers
			}

			paths, err := shard.SplitFile(args[0], count, dir)
			if err != nil {
				return err
			}

			s.logger.InfoContext(cmd.Context(), "issue file split", "shards", len(paths), "dir", dir)

			for _, path := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "shards", "n", 0, "number of shards (0 = workers)")
	cmd.Flags().StringVar(&dir, "dir", defaultShardDir, "directory receiving the shard files; must not exist")
	registerRunOptions(cmd.Flags(), "workers")

	return cmd
}

// NewMergeCommand creates the merge command.
func NewMergeCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "merge [result-dir...]",
		Short: "Merge shard result directories",
		Long: `Merge unions the commits, annotations and fix_and_introducers_pairs documents
of the given directories into --results. Without arguments the directories
<results>/result0 .. <results>/result<n-1> are merged, n being --shards.
Missing directories are skipped with a warning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			setColor(noColor(cmd))

			dirs := args
			if len(dirs) == 0 {
				if count < 1 {
					return ErrNoResultDirs
				}

				dirs = shard.ResultDirs(s.cfg.Results, count)
			}

			settings, err := pipeline.SettingsFromConfig(s.cfg)
			if err != nil {
				return err
			}

			stats, err := results.Merge(dirs, s.cfg.Results, settings.Output, s.logger)
			if err != nil {
				return fmt.Errorf("merge: %w", err)
			}

			renderMerge(cmd.OutOrStdout(), stats, s.cfg.Results)

			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "shards", "n", 0, "number of result<i> directories under --results")
	registerRunOptions(cmd.Flags(), "results", "format", "compress")

	return cmd
}
