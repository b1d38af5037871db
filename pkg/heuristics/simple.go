package heuristics

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"

	"github.com/Sumatoshi-tech/szz/pkg/alg/combin"
	"github.com/Sumatoshi-tech/szz/pkg/annotation"
	"github.com/Sumatoshi-tech/szz/pkg/history"
	"github.com/Sumatoshi-tech/szz/pkg/issues"
)

// SimpleFinder accepts ancestors committed before the fix's issue was
// created, then retries the rest pairwise per file and finally accepts
// candidates whose message marks them as partial fixes.
type SimpleFinder struct {
	repo       history.Repository
	issues     *issues.Store
	depth      int
	partialFix *regexp.Regexp
	logger     *slog.Logger
}

// NewSimpleFinder creates a simple finder. An empty pattern selects
// DefaultPartialFixPattern.
func NewSimpleFinder(deps Deps, opts Options) (*SimpleFinder, error) {
	pattern := opts.PartialFixPattern
	if pattern == "" {
		pattern = DefaultPartialFixPattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	return &SimpleFinder{
		repo:       deps.Repo,
		issues:     deps.Issues,
		depth:      opts.Depth,
		partialFix: re,
		logger:     deps.logger(),
	}, nil
}

// buckets groups suspect introducers and the issues they were paired with by file path.
type buckets struct {
	introducers map[string][]string
	issues      map[string][]string
}

func newBuckets() *buckets {
	return &buckets{introducers: make(map[string][]string), issues: make(map[string][]string)}
}

func (b *buckets) add(path, introducer, issue string) {
	b.introducers[path] = append(b.introducers[path], introducer)
	b.issues[path] = append(b.issues[path], issue)
}

func (b *buckets) paths() []string {
	return slices.Sorted(maps.Keys(b.introducers))
}

// pairs calls fn for every mixed-role combination of the bucket at path.
func (b *buckets) pairs(path string, fn func(introducer, issue string)) {
	gen, err := combin.NewRolePairs(b.introducers[path], b.issues[path])
	if err != nil {
		return
	}

	for gen.HasNext() {
		introducer, issue := gen.Next()
		if introducer == "" && issue == "" {
			continue
		}

		fn(introducer, issue)
	}
}

// FindIntroducers implements Finder.
func (f *SimpleFinder) FindIntroducers(ctx context.Context, graphs annotation.Map) ([]Pair, error) {
	revs := newRevisions(f.repo)

	var found []Pair

	weak := newBuckets()

	for _, fix := range graphs.Revisions() {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		for _, graph := range annotation.Expand(graphs[fix], f.depth) {
			for _, rev := range graph.Ancestors() {
				if f.withinTimeframe(ctx, revs, fix, rev) {
					found = append(found, Pair{Fix: fix, Introducer: rev})
				} else {
					weak.add(graph.FilePath, rev, fix)
				}
			}
		}
	}

	hard := newBuckets()

	for _, path := range weak.paths() {
		weak.pairs(path, func(introducer, issue string) {
			if f.withinTimeframe(ctx, revs, issue, introducer) {
				found = append(found, Pair{Fix: issue, Introducer: introducer})
			} else {
				hard.add(path, introducer, issue)
			}
		})
	}

	for _, path := range hard.paths() {
		hard.pairs(path, func(introducer, issue string) {
			if f.isPartialFix(ctx, revs, introducer) {
				found = append(found, Pair{Fix: issue, Introducer: introducer})
			}
		})
	}

	f.logger.DebugContext(ctx, "simple heuristic done",
		"fixes", len(graphs), "pairs", len(found),
		"weak_files", len(weak.introducers), "hard_files", len(hard.introducers))

	return found, nil
}

// withinTimeframe reports whether rev was committed before the issue fixed by
// fix was created. Unknown revisions and missing or malformed dates fail closed.
func (f *SimpleFinder) withinTimeframe(ctx context.Context, revs *revisions, fix, rev string) bool {
	created, err := f.issues.Lookup(fix).Created()
	if err != nil {
		return false
	}

	revision, ok := revs.resolve(ctx, rev)
	if !ok {
		return false
	}

	return revision.When.Before(created)
}

func (f *SimpleFinder) isPartialFix(ctx context.Context, revs *revisions, rev string) bool {
	revision, ok := revs.resolve(ctx, rev)
	if !ok {
		return false
	}

	return f.partialFix.MatchString(revision.Message)
}
