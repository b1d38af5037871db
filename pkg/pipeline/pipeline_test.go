package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Sumatoshi-tech/szz/pkg/config"
	"github.com/Sumatoshi-tech/szz/pkg/heuristics"
	"github.com/Sumatoshi-tech/szz/pkg/history"
	"github.com/Sumatoshi-tech/szz/pkg/history/memrepo"
	"github.com/Sumatoshi-tech/szz/pkg/issues"
	"github.com/Sumatoshi-tech/szz/pkg/observability"
	"github.com/Sumatoshi-tech/szz/pkg/pipeline"
	"github.com/Sumatoshi-tech/szz/pkg/results"
)

func day(d int) time.Time {
	return time.Date(2020, 1, d, 12, 0, 0, 0, time.UTC)
}

// newRepo records two independent bugs. Each is inserted by one intro commit
// and deleted again by one fix commit.
func newRepo() *memrepo.Repository {
	repo := memrepo.New()

	repo.Commit(memrepo.CommitSpec{
		ID: "base0000", When: day(1), Message: "initial",
		Files: map[string]string{"a.go": "a\nc\n", "b.go": "x\nz\n"},
	})
	repo.Commit(memrepo.CommitSpec{
		ID: "intro1111", Parents: []string{"base0000"}, When: day(5), Message: "rework a",
		Files: map[string]string{"a.go": "a\nBUG\nc\n"},
	})
	repo.Commit(memrepo.CommitSpec{
		ID: "intro2222", Parents: []string{"intro1111"}, When: day(6), Message: "rework b",
		Files: map[string]string{"b.go": "x\nBUG\nz\n"},
	})
	repo.Commit(memrepo.CommitSpec{
		ID: "fix11111", Parents: []string{"intro2222"}, When: day(20), Message: "JENKINS-1 drop bug in a",
		Files: map[string]string{"a.go": "a\nc\n"},
	})
	repo.Commit(memrepo.CommitSpec{
		ID: "fix22222", Parents: []string{"fix11111"}, When: day(21), Message: "JENKINS-2 drop bug in b",
		Files: map[string]string{"b.go": "x\nz\n"},
	})

	return repo
}

func issueFile() issues.File {
	created := day(10).Format(issues.DateLayout)

	return issues.File{
		"JENKINS-1": {Hash: "fix1", CreationDate: created},
		"JENKINS-2": {Hash: "fix2", CreationDate: created},
	}
}

func memOpener(repo history.Repository) pipeline.Opener {
	return func(string) (history.Repository, func(), error) {
		return repo, func() {}, nil
	}
}

func newRunner(repo history.Repository) *pipeline.Runner {
	return &pipeline.Runner{
		Settings: pipeline.Settings{
			Repository: "mem",
			Depth:      3,
			Finder:     heuristics.Simple,
			CacheSize:  16,
			Output:     results.Options{Format: results.FormatJSON},
		},
		Open: memOpener(repo),
	}
}

func TestRunner_Shard(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	metrics, err := observability.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	runner := newRunner(newRepo())
	runner.Metrics = metrics

	dir := filepath.Join(t.TempDir(), "result0")
	file := issueFile()
	file["JENKINS-3"] = issues.Entry{Hash: "deadbeef"}

	stats, err := runner.Run(context.Background(), pipeline.Shard{Index: 0, Issues: file, Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, "simple", stats.Finder)
	assert.Equal(t, 2, stats.Commits)
	assert.Equal(t, 2, stats.Graphs)
	assert.Equal(t, 2, stats.Pairs)

	pairs, err := results.ReadPairs(dir)
	require.NoError(t, err)
	assert.Equal(t, []heuristics.Pair{
		{Fix: "fix11111", Introducer: "intro1111"},
		{Fix: "fix22222", Introducer: "intro2222"},
	}, pairs)

	set, err := results.Read(dir)
	require.NoError(t, err)
	assert.Len(t, set.Commits, 2)
	assert.Contains(t, set.Annotations, "fix11111")
}

func TestRunner_OpenFailure(t *testing.T) {
	t.Parallel()

	runner := newRunner(nil)
	runner.Open = func(string) (history.Repository, func(), error) {
		return nil, nil, errors.New("no such repo")
	}

	stats, err := runner.Run(context.Background(), pipeline.Shard{Dir: t.TempDir()})
	require.Error(t, err)
	assert.Equal(t, err, stats.Err)
}

func TestRunner_NoRepository(t *testing.T) {
	t.Parallel()

	runner := newRunner(newRepo())
	runner.Settings.Repository = ""

	_, err := runner.Run(context.Background(), pipeline.Shard{Dir: t.TempDir()})
	require.ErrorIs(t, err, pipeline.ErrNoRepository)
}

func TestCoordinator_MergesShards(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	coordinator := &pipeline.Coordinator{Runner: newRunner(newRepo()), Workers: 2, Results: out}

	report, err := coordinator.Run(context.Background(), issueFile())
	require.NoError(t, err)

	require.Len(t, report.Shards, 2)
	assert.Zero(t, report.Failed())
	assert.Equal(t, 2, report.Merge.Merged)
	assert.Equal(t, 2, report.Merge.Pairs)

	pairs, err := results.ReadPairs(out)
	require.NoError(t, err)
	assert.ElementsMatch(t, []heuristics.Pair{
		{Fix: "fix11111", Introducer: "intro1111"},
		{Fix: "fix22222", Introducer: "intro2222"},
	}, pairs)
}

func TestCoordinator_FailingShardDoesNotStopSiblings(t *testing.T) {
	t.Parallel()

	repo := newRepo()
	out := t.TempDir()

	runner := newRunner(repo)
	calls := make(chan struct{}, 1)
	calls <- struct{}{}

	// The first shard to open the repository fails.
	runner.Open = func(string) (history.Repository, func(), error) {
		select {
		case <-calls:
			return nil, nil, errors.New("transient")
		default:
			return repo, func() {}, nil
		}
	}

	coordinator := &pipeline.Coordinator{Runner: runner, Workers: 2, Results: out}

	report, err := coordinator.Run(context.Background(), issueFile())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 1, report.Merge.Merged)
	assert.Equal(t, 1, report.Merge.Pairs)
}

func TestCoordinator_AllShardsFail(t *testing.T) {
	t.Parallel()

	runner := newRunner(nil)
	runner.Open = func(string) (history.Repository, func(), error) {
		return nil, nil, errors.New("gone")
	}

	coordinator := &pipeline.Coordinator{Runner: runner, Workers: 2, Results: t.TempDir()}

	_, err := coordinator.Run(context.Background(), issueFile())
	require.ErrorIs(t, err, pipeline.ErrAllShardsFailed)
}

func TestSettingsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Repository:   "/src",
		Depth:        4,
		DiffContext:  1,
		BugFinder:    "Distance",
		CacheSize:    8,
		OmitLineText: true,
		Output:       config.OutputConfig{Format: "yaml", Compress: true},
	}

	settings, err := pipeline.SettingsFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, heuristics.Distance, settings.Finder)
	assert.Equal(t, results.FormatYAML, settings.Output.Format)
	assert.True(t, settings.Output.Compress)
	assert.True(t, settings.OmitLineText)
	assert.Equal(t, 4, settings.Depth)

	cfg.BugFinder = "oracle"
	_, err = pipeline.SettingsFromConfig(cfg)
	require.ErrorIs(t, err, heuristics.ErrUnknownKind)
}

func TestRunOptions_Register(t *testing.T) {
	t.Parallel()

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	for _, opt := range pipeline.RunOptions() {
		opt.Register(flags)
	}

	for name := range config.FlagKeys {
		switch name {
		case "log-level", "log-format", "otlp-endpoint", "metrics-addr", "pattern":
			continue
		}

		assert.NotNil(t, flags.Lookup(name), "flag %s", name)
	}

	require.NoError(t, flags.Parse([]string{"-d", "5", "--omit-line-text"}))

	depth, err := flags.GetInt("depth")
	require.NoError(t, err)
	assert.Equal(t, 5, depth)

	assert.Equal(t, `"simple"`, pipeline.RunOptions()[5].FormatDefault())
	assert.Equal(t, "int", pipeline.IntConfigurationOption.String())
}
