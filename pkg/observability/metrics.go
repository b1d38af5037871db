package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricShardsTotal   = "szz.shards.total"
	metricShardsFailed  = "szz.shards.failed"
	metricShardDuration = "szz.shard.duration.seconds"
	metricCommitsTotal  = "szz.commits.total"
	metricGraphsTotal   = "szz.graphs.total"
	metricPairsTotal    = "szz.pairs.total"

	attrFinder = "finder"
	attrStatus = "status"

	// StatusOK marks a shard that produced its outputs.
	StatusOK = "ok"
	// StatusError marks a shard that failed.
	StatusError = "error"
)

// durationBuckets covers sub-second toy repos up to hour-long histories.
var durationBuckets = []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600, 1800, 3600}

// ShardStats summarizes one processed shard.
type ShardStats struct {
	Finder   string
	Commits  int
	Graphs   int
	Pairs    int
	Duration time.Duration
	Err      error
}

// Metrics holds the instruments recorded per shard.
type Metrics struct {
	shardsTotal   metric.Int64Counter
	shardsFailed  metric.Int64Counter
	shardDuration metric.Float64Histogram
	commitsTotal  metric.Int64Counter
	graphsTotal   metric.Int64Counter
	pairsTotal    metric.Int64Counter
}

// NewMetrics creates the shard instruments from mt.
func NewMetrics(mt metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.shardsTotal, metricShardsTotal, "Processed shards", "{shard}"},
		{&m.shardsFailed, metricShardsFailed, "Shards that failed", "{shard}"},
		{&m.commitsTotal, metricCommitsTotal, "Fix commits diffed", "{commit}"},
		{&m.graphsTotal, metricGraphsTotal, "File annotation graphs built", "{graph}"},
		{&m.pairsTotal, metricPairsTotal, "Fix and introducer pairs found", "{pair}"},
	}

	for _, c := range counters {
		*c.dst, err = mt.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	m.shardDuration, err = mt.Float64Histogram(metricShardDuration,
		metric.WithDescription("Shard processing time in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricShardDuration, err)
	}

	return &m, nil
}

// RecordShard records the outcome of one shard.
func (m *Metrics) RecordShard(ctx context.Context, stats ShardStats) {
	status := StatusOK
	if stats.Err != nil {
		status = StatusError
	}

	attrs := metric.WithAttributes(
		attribute.String(attrFinder, stats.Finder),
		attribute.String(attrStatus, status),
	)

	m.shardsTotal.Add(ctx, 1, attrs)
	m.shardDuration.Record(ctx, stats.Duration.Seconds(), attrs)

	if stats.Err != nil {
		m.shardsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String(attrFinder, stats.Finder)))

		return
	}

	finder := metric.WithAttributes(attribute.String(attrFinder, stats.Finder))

	m.commitsTotal.Add(ctx, int64(stats.Commits), finder)
	m.graphsTotal.Add(ctx, int64(stats.Graphs), finder)
	m.pairsTotal.Add(ctx, int64(stats.Pairs), finder)
}
