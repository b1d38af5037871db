// Package annotation traces the lines a revision deleted back through blame,
// building a bounded-depth tree of origin revisions per changed file.
package annotation

import (
	"maps"
	"slices"
)

// FileAnnotationGraph records, for one file, which ancestor revisions last
// touched the lines a source revision deleted. Revisions[0] is the source.
type FileAnnotationGraph struct {
	FilePath  string                          `json:"filePath"`
	Revisions []string                        `json:"revisions"`
	Mappings  map[string]map[int]int          `json:"mappings"`
	SubGraphs map[string]*FileAnnotationGraph `json:"subgraphs"`
}

func newGraph(path, source string) *FileAnnotationGraph {
	return &FileAnnotationGraph{
		FilePath:  path,
		Revisions: []string{source},
		Mappings:  make(map[string]map[int]int),
		SubGraphs: make(map[string]*FileAnnotationGraph),
	}
}

// Source returns the revision whose deletions the graph traces.
func (g *FileAnnotationGraph) Source() string {
	if len(g.Revisions) == 0 {
		return ""
	}

	return g.Revisions[0]
}

// Ancestors returns the origin revisions in discovery order, excluding the source.
func (g *FileAnnotationGraph) Ancestors() []string {
	if len(g.Revisions) < 2 {
		return nil
	}

	return g.Revisions[1:]
}

// LineMapping returns the deleted-line to origin-line mapping for rev. The
// source revision has no mapping.
func (g *FileAnnotationGraph) LineMapping(rev string) (map[int]int, bool) {
	if rev == g.Source() {
		return nil, false
	}

	mapping, ok := g.Mappings[rev]

	return mapping, ok
}

// merge adds mapping entries for rev without overwriting existing keys, and
// appends rev to Revisions on first sight.
func (g *FileAnnotationGraph) merge(rev string, lines map[int]int) {
	existing, ok := g.Mappings[rev]
	if !ok {
		g.Revisions = append(g.Revisions, rev)
		g.Mappings[rev] = maps.Clone(lines)

		return
	}

	for from, to := range lines {
		if _, seen := existing[from]; !seen {
			existing[from] = to
		}
	}
}

// Expand returns graphs followed by their descendants, level by level, down
// to depth-2 levels below the top. Depth 2 or less expands nothing. Each graph
// appears once.
func Expand(graphs []*FileAnnotationGraph, depth int) []*FileAnnotationGraph {
	out := slices.Clone(graphs)
	level := graphs

	for range max(depth-2, 0) {
		var next []*FileAnnotationGraph
		for _, g := range level {
			next = append(next, g.children()...)
		}

		if len(next) == 0 {
			break
		}

		out = append(out, next...)
		level = next
	}

	return out
}

func (g *FileAnnotationGraph) children() []*FileAnnotationGraph {
	children := make([]*FileAnnotationGraph, 0, len(g.SubGraphs))
	for _, rev := range slices.Sorted(maps.Keys(g.SubGraphs)) {
		children = append(children, g.SubGraphs[rev])
	}

	return children
}

// Map holds the file graphs of every traced revision, keyed by revision id.
type Map map[string][]*FileAnnotationGraph

// Revisions returns the traced revision ids in sorted order.
func (m Map) Revisions() []string {
	return slices.Sorted(maps.Keys(m))
}

// Merge copies all entries of other into m, replacing duplicate keys.
func (m Map) Merge(other Map) {
	maps.Copy(m, other)
}
