package annotation

import (
	"context"
	"log/slog"

	"github.com/Sumatoshi-tech/szz/pkg/difflines"
	"github.com/Sumatoshi-tech/szz/pkg/history"
)

// Builder traces file changes through first-parent blame.
type Builder struct {
	differ *difflines.Differ
	logger *slog.Logger
}

// NewBuilder creates a builder reading diffs and blame through differ.
func NewBuilder(differ *difflines.Differ, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{differ: differ, logger: logger}
}

// TraceFileChanges builds the annotation graph of path for the lines source
// deleted, recursing depth levels. It returns nil when depth is zero or source
// did not change path. Blame failures yield a graph holding only the source.
func (b *Builder) TraceFileChanges(ctx context.Context, path string, source *difflines.CommitDiff, depth int) *FileAnnotationGraph {
	if depth <= 0 || source == nil {
		return nil
	}

	lines, ok := source.Lines(path)
	if !ok {
		return nil
	}

	graph := newGraph(path, source.Revision.ID)

	if source.Revision.IsRoot() {
		return graph
	}

	repo := b.differ.Repository()

	blame, err := repo.Blame(ctx, source.Revision.Parents[0], path)
	if err != nil {
		b.logger.DebugContext(ctx, "blame failed",
			"revision", source.Revision.ID, "path", path, "error", err)

		return graph
	}

	var origins []string

	found := make(map[string]map[int]int)

	for _, index := range lines.DeletedIndices() {
		origin, known := blame[index]
		if !known {
			continue
		}

		mapping, seen := found[origin.Revision]
		if !seen {
			mapping = make(map[int]int)
			found[origin.Revision] = mapping
			origins = append(origins, origin.Revision)
		}

		mapping[index] = origin.Line
	}

	for _, rev := range origins {
		graph.merge(rev, found[rev])
	}

	for _, rev := range origins {
		if ctx.Err() != nil {
			break
		}

		sub, subErr := b.differ.CommitDiff(ctx, rev)
		if subErr != nil {
			b.logger.DebugContext(ctx, "skip origin revision", "revision", rev, "error", subErr)

			continue
		}

		if subGraph := b.TraceFileChanges(ctx, path, sub, depth-1); subGraph != nil {
			graph.SubGraphs[sub.Revision.ID] = subGraph
		}
	}

	return graph
}

// BuildMap traces every file changed by each diff. Files with no graph are left out.
func (b *Builder) BuildMap(ctx context.Context, diffs []*difflines.CommitDiff, depth int) Map {
	result := make(Map, len(diffs))

	for _, diff := range diffs {
		if ctx.Err() != nil {
			break
		}

		graphs := make([]*FileAnnotationGraph, 0, len(diff.Files))

		for _, path := range diff.Paths() {
			if graph := b.TraceFileChanges(ctx, path, diff, depth); graph != nil {
				graphs = append(graphs, graph)
			}
		}

		result[diff.Revision.ID] = graphs
	}

	return result
}

// Trace resolves refs, computes their diffs and builds the annotation map.
// Unresolvable refs are logged and skipped.
func (b *Builder) Trace(ctx context.Context, refs []string, depth int) ([]*difflines.CommitDiff, Map) {
	diffs := make([]*difflines.CommitDiff, 0, len(refs))

	for _, ref := range refs {
		diff, err := b.differ.CommitDiff(ctx, ref)
		if err != nil {
			b.logger.WarnContext(ctx, "skip revision", "ref", ref, "error", err)

			continue
		}

		diffs = append(diffs, diff)
	}

	return diffs, b.BuildMap(ctx, diffs, depth)
}

// Repository returns the repository the builder reads from.
func (b *Builder) Repository() history.Repository {
	return b.differ.Repository()
}
