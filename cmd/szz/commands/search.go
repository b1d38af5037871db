package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/szz/pkg/history"
	"github.com/Sumatoshi-tech/szz/pkg/issues"
	"github.com/Sumatoshi-tech/szz/pkg/pipeline"
	"github.com/Sumatoshi-tech/szz/pkg/search"
)

// ErrNotWalkable is returned when the opened repository cannot list its history.
var ErrNotWalkable = errors.New("repository does not support history walks")

// SearchCommand holds the flags and dependencies of the search command.
type SearchCommand struct {
	open   pipeline.Opener
	since  string
	limit  int
	output string
}

// NewSearchCommand creates the search command reading git repositories through libgit2.
func NewSearchCommand() *cobra.Command {
	return newSearchCommandWithOpener(pipeline.OpenGit)
}

func newSearchCommandWithOpener(open pipeline.Opener) *cobra.Command {
	sc := &SearchCommand{open: open}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find bug-fixing revisions by commit message",
		Long: `Search walks the history from HEAD and lists the revisions whose message
matches --pattern. Each issue key maps to the newest matching revision that is
not a merge, cherry-pick or note. With --output the selection is written as an
issue file skeleton; creation dates must be added from the issue tracker.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().String("pattern", search.DefaultPattern, "regular expression matched against commit messages")
	cmd.Flags().StringVar(&sc.since, "since", "", "only search commits after this time (e.g., '720h', '2018-01-01', RFC3339)")
	cmd.Flags().IntVar(&sc.limit, "limit", 0, "stop after this many matching commits (0 = no limit)")
	cmd.Flags().StringVarP(&sc.output, "output", "o", "", "write the selected fixes as an issue file")
	registerRunOptions(cmd.Flags(), "repository")

	return cmd
}

func (sc *SearchCommand) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	setColor(noColor(cmd))

	if s.cfg.Repository == "" {
		return pipeline.ErrNoRepository
	}

	opts := search.Options{Pattern: s.cfg.Search.Pattern, Limit: sc.limit}

	if sc.since != "" {
		opts.Since, err = search.ParseSince(sc.since, time.Now())
		if err != nil {
			return err
		}
	}

	repo, release, err := sc.open(s.cfg.Repository)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer release()

	walker, ok := repo.(history.Walker)
	if !ok {
		return ErrNotWalkable
	}

	searcher, err := search.New(walker, opts, s.logger)
	if err != nil {
		return err
	}

	matches, err := searcher.Find(ctx)
	if err != nil {
		return err
	}

	selected := search.Select(matches)

	renderMatches(cmd.OutOrStdout(), matches, len(selected))

	if sc.output == "" {
		return nil
	}

	if err = issues.Write(sc.output, search.IssueFile(selected)); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "issue file written", "path", sc.output, "issues", len(selected))

	return nil
}
