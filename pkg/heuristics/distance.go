package heuristics

import (
	"context"
	"log/slog"

	"github.com/Sumatoshi-tech/szz/pkg/alg/jaccard"
	"github.com/Sumatoshi-tech/szz/pkg/annotation"
	"github.com/Sumatoshi-tech/szz/pkg/difflines"
	"github.com/Sumatoshi-tech/szz/pkg/history"
)

// DistanceFinder picks, per changed file, the ancestor whose version of the
// deleted lines is textually closest to what the fix removed.
type DistanceFinder struct {
	repo   history.Repository
	differ *difflines.Differ
	logger *slog.Logger
}

// NewDistanceFinder creates a distance finder.
func NewDistanceFinder(deps Deps) *DistanceFinder {
	return &DistanceFinder{repo: deps.Repo, differ: deps.Differ, logger: deps.logger()}
}

// FindIntroducers implements Finder. One pair is emitted per file graph that
// has at least one ancestor.
func (f *DistanceFinder) FindIntroducers(ctx context.Context, graphs annotation.Map) ([]Pair, error) {
	revs := newRevisions(f.repo)

	var found []Pair

	for _, fix := range graphs.Revisions() {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		diff, err := f.differ.CommitDiff(ctx, fix)
		if err != nil {
			f.logger.DebugContext(ctx, "skip fix revision", "revision", fix, "error", err)

			continue
		}

		for _, graph := range graphs[fix] {
			introducer, ok := f.closest(ctx, revs, graph, diff)
			if ok {
				found = append(found, Pair{Fix: fix, Introducer: introducer})
			}
		}
	}

	return found, nil
}

// closest walks the ancestors of graph and returns the one with the smallest
// average distance. The first ancestor is the default and only a strictly
// smaller distance than the best so far replaces it.
func (f *DistanceFinder) closest(
	ctx context.Context, revs *revisions, graph *annotation.FileAnnotationGraph, diff *difflines.CommitDiff,
) (string, bool) {
	ancestors := graph.Ancestors()
	if len(ancestors) == 0 {
		return "", false
	}

	best, smallest := ancestors[0], 1.0
	if len(ancestors) == 1 {
		return best, true
	}

	lines, _ := diff.Lines(graph.FilePath)
	tracked := lines.Deletions

	for _, rev := range ancestors {
		if _, ok := revs.resolve(ctx, rev); !ok {
			continue
		}

		content, err := f.repo.ReadFileLines(ctx, rev, graph.FilePath)
		if err != nil {
			content = nil
		}

		mapping, _ := graph.LineMapping(rev)

		distance, updated := compareSections(tracked, content, mapping)
		if distance < smallest {
			best, smallest = rev, distance
		}

		tracked = updated
	}

	return best, true
}

// compareSections averages the bigram distance between each tracked line and
// the line it maps to in other. Lines without a usable mapping count towards
// the average but are dropped from the returned, remapped list.
func compareSections(current []difflines.LineRecord, other []string, mapping map[int]int) (float64, []difflines.LineRecord) {
	var (
		sum     float64
		updated []difflines.LineRecord
	)

	for _, rec := range current {
		if rec.Index < 0 {
			continue
		}

		otherID, ok := mapping[rec.Index]
		if !ok || otherID < 0 || otherID >= len(other) {
			continue
		}

		sum += jaccard.Bigram(rec.Content, other[otherID])
		updated = append(updated, difflines.LineRecord{Index: otherID, Content: rec.Content})
	}

	if len(current) == 0 {
		return sum, updated
	}

	return sum / float64(len(current)), updated
}
