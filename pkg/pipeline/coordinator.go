package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/szz/pkg/issues"
	"github.com/Sumatoshi-tech/szz/pkg/observability"
	"github.com/Sumatoshi-tech/szz/pkg/results"
	"github.com/Sumatoshi-tech/szz/pkg/shard"
)

// ErrAllShardsFailed is returned when no shard produced results.
var ErrAllShardsFailed = errors.New("all shards failed")

// ShardReport is the outcome of one shard.
type ShardReport struct {
	Index  int
	Dir    string
	Issues int
	Stats  observability.ShardStats
}

// Failed reports whether the shard did not produce its documents.
func (s ShardReport) Failed() bool {
	return s.Stats.Err != nil
}

// Report summarizes a coordinated run.
type Report struct {
	Shards   []ShardReport
	Merge    results.MergeStats
	Duration time.Duration
}

// Failed returns the number of failed shards.
func (r Report) Failed() int {
	failed := 0

	for _, s := range r.Shards {
		if s.Failed() {
			failed++
		}
	}

	return failed
}

// Coordinator splits an issue file into shards, runs them in parallel and
// merges the surviving result directories into Results.
type Coordinator struct {
	Runner  *Runner
	Workers int
	Results string
}

// Run executes every shard. A failing shard is logged and does not stop its
// siblings; only when every non-empty shard fails is an error returned.
func (c *Coordinator) Run(ctx context.Context, file issues.File) (Report, error) {
	start := time.Now()
	logger := c.Runner.logger()

	ctx, span := c.Runner.tracer().Start(ctx, "szz.run", trace.WithAttributes(
		attribute.Int("szz.workers", c.Workers),
		attribute.Int("szz.issues", len(file)),
	))
	defer span.End()

	shards, err := shard.Split(file, c.Workers)
	if err != nil {
		return Report{}, err
	}

	reports := make([]ShardReport, len(shards))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.Workers)

	for i, issueShard := range shards {
		dir := shard.ResultDir(c.Results, i)
		reports[i] = ShardReport{Index: i, Dir: dir, Issues: len(issueShard)}

		group.Go(func() error {
			stats, runErr := c.Runner.Run(groupCtx, Shard{Index: i, Issues: issueShard, Dir: dir})
			reports[i].Stats = stats

			if runErr != nil {
				logger.ErrorContext(groupCtx, "shard failed", "shard", i, "dir", dir, "error", runErr)
			}

			return nil
		})
	}

	// Shard goroutines never return errors.
	_ = group.Wait()

	report := Report{Shards: reports}

	if err = ctx.Err(); err != nil {
		report.Duration = time.Since(start)

		return report, err
	}

	dirs := make([]string, 0, len(reports))
	attempted := 0

	for _, r := range reports {
		if r.Issues > 0 {
			attempted++
		}

		if !r.Failed() {
			dirs = append(dirs, r.Dir)
		}
	}

	report.Merge, err = results.Merge(dirs, c.Results, c.Runner.Settings.Output, logger)
	report.Duration = time.Since(start)

	if err != nil {
		return report, fmt.Errorf("merge results: %w", err)
	}

	if attempted > 0 && report.Failed() >= attempted {
		return report, ErrAllShardsFailed
	}

	return report, nil
}
