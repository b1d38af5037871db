// Package pipeline runs the SZZ stages over issue shards: commit diffs,
// annotation graphs and the introducer heuristic, writing each stage's
// document into the shard's result directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/szz/pkg/annotation"
	"github.com/Sumatoshi-tech/szz/pkg/difflines"
	"github.com/Sumatoshi-tech/szz/pkg/gitlib"
	"github.com/Sumatoshi-tech/szz/pkg/heuristics"
	"github.com/Sumatoshi-tech/szz/pkg/history"
	"github.com/Sumatoshi-tech/szz/pkg/issues"
	"github.com/Sumatoshi-tech/szz/pkg/observability"
	"github.com/Sumatoshi-tech/szz/pkg/results"
)

const tracerName = "github.com/Sumatoshi-tech/szz/pkg/pipeline"

// ErrNoRepository is returned when a runner has no repository path.
var ErrNoRepository = errors.New("no repository configured")

// Opener opens the repository at path for one shard. The returned function
// releases it.
type Opener func(path string) (history.Repository, func(), error)

// OpenGit opens a local repository through libgit2.
func OpenGit(path string) (history.Repository, func(), error) {
	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		return nil, nil, err
	}

	return gitlib.NewSource(repo), repo.Free, nil
}

// Settings are the per-shard algorithm parameters.
type Settings struct {
	Repository        string
	Depth             int
	DiffContext       int
	OmitLineText      bool
	Finder            heuristics.Kind
	PartialFixPattern string
	CacheSize         int
	Output            results.Options
}

// Shard is one unit of work.
type Shard struct {
	Index  int
	Issues issues.File
	Dir    string
}

// Runner executes the stages for one shard at a time.
type Runner struct {
	Settings Settings

	// Open defaults to OpenGit.
	Open Opener

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Tracer defaults to the global provider.
	Tracer trace.Tracer

	// Metrics is optional.
	Metrics *observability.Metrics
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}

	return r.Logger
}

func (r *Runner) tracer() trace.Tracer {
	if r.Tracer != nil {
		return r.Tracer
	}

	return otel.Tracer(tracerName)
}

func (r *Runner) opener() Opener {
	if r.Open != nil {
		return r.Open
	}

	return OpenGit
}

// Run processes shard and records its outcome. Fix revisions that cannot be
// resolved are logged and skipped; errors are reserved for setup and output
// failures.
func (r *Runner) Run(ctx context.Context, shard Shard) (observability.ShardStats, error) {
	start := time.Now()

	ctx, span := r.tracer().Start(ctx, "szz.shard", trace.WithAttributes(
		attribute.Int("shard.index", shard.Index),
		attribute.Int("shard.issues", len(shard.Issues)),
		attribute.String("szz.finder", r.Settings.Finder.String()),
	))
	defer span.End()

	stats, err := r.run(ctx, shard)
	stats.Finder = r.Settings.Finder.String()
	stats.Duration = time.Since(start)
	stats.Err = err

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "shard failed")
	}

	span.SetAttributes(
		attribute.Int("szz.commits", stats.Commits),
		attribute.Int("szz.graphs", stats.Graphs),
		attribute.Int("szz.pairs", stats.Pairs),
	)

	if r.Metrics != nil {
		r.Metrics.RecordShard(ctx, stats)
	}

	return stats, err
}

func (r *Runner) run(ctx context.Context, shard Shard) (observability.ShardStats, error) {
	var stats observability.ShardStats

	if r.Settings.Repository == "" {
		return stats, ErrNoRepository
	}

	logger := r.logger().With("shard", shard.Index)

	repo, release, err := r.opener()(r.Settings.Repository)
	if err != nil {
		return stats, fmt.Errorf("open repository: %w", err)
	}
	defer release()

	extractor, err := difflines.NewExtractor(r.Settings.DiffContext, r.Settings.OmitLineText)
	if err != nil {
		return stats, err
	}

	differ := difflines.NewDiffer(repo, extractor, r.Settings.CacheSize)
	store := shard.Issues.Store()
	refs := shard.Issues.Hashes()

	byRef, err := differ.CommitDiffs(ctx, refs)
	if err != nil {
		logger.WarnContext(ctx, "some fix revisions were skipped", "error", err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return stats, ctxErr
	}

	diffs := make([]*difflines.CommitDiff, 0, len(byRef))

	for _, ref := range refs {
		diff, ok := byRef[ref]
		if !ok {
			continue
		}

		store.Rename(ref, diff.Revision.ID)
		diffs = append(diffs, diff)
	}

	stats.Commits = len(diffs)

	writer, err := results.NewWriter(shard.Dir, r.Settings.Output)
	if err != nil {
		return stats, err
	}

	if err = writer.WriteCommits(diffs); err != nil {
		return stats, fmt.Errorf("write commits: %w", err)
	}

	graphs := r.annotate(ctx, differ, diffs, logger)
	for _, fileGraphs := range graphs {
		stats.Graphs += len(fileGraphs)
	}

	if err = writer.WriteAnnotations(graphs); err != nil {
		return stats, fmt.Errorf("write annotations: %w", err)
	}

	pairs, err := r.findIntroducers(ctx, repo, differ, store, graphs, logger)
	if err != nil {
		return stats, err
	}

	stats.Pairs = len(pairs)

	if err = writer.WritePairs(pairs); err != nil {
		return stats, fmt.Errorf("write pairs: %w", err)
	}

	logger.InfoContext(ctx, "shard done",
		"commits", stats.Commits, "graphs", stats.Graphs, "pairs", stats.Pairs, "dir", writer.Dir())

	return stats, nil
}

func (r *Runner) annotate(
	ctx context.Context, differ *difflines.Differ, diffs []*difflines.CommitDiff, logger *slog.Logger,
) annotation.Map {
	ctx, span := r.tracer().Start(ctx, "szz.annotate", trace.WithAttributes(
		attribute.Int("szz.depth", r.Settings.Depth),
	))
	defer span.End()

	return annotation.NewBuilder(differ, logger).BuildMap(ctx, diffs, r.Settings.Depth)
}

func (r *Runner) findIntroducers(
	ctx context.Context,
	repo history.Repository,
	differ *difflines.Differ,
	store *issues.Store,
	graphs annotation.Map,
	logger *slog.Logger,
) ([]heuristics.Pair, error) {
	ctx, span := r.tracer().Start(ctx, "szz.find_introducers")
	defer span.End()

	finder, err := heuristics.New(r.Settings.Finder, heuristics.Deps{
		Repo:   repo,
		Differ: differ,
		Issues: store,
		Logger: logger,
	}, heuristics.Options{
		Depth:             r.Settings.Depth,
		PartialFixPattern: r.Settings.PartialFixPattern,
	})
	if err != nil {
		return nil, err
	}

	pairs, err := finder.FindIntroducers(ctx, graphs)
	if err != nil {
		return nil, fmt.Errorf("find introducers: %w", err)
	}

	return pairs, nil
}
