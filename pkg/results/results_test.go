package results_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/szz/pkg/annotation"
	"github.com/Sumatoshi-tech/szz/pkg/difflines"
	"github.com/Sumatoshi-tech/szz/pkg/heuristics"
	"github.com/Sumatoshi-tech/szz/pkg/history"
	"github.com/Sumatoshi-tech/szz/pkg/results"
)

func sampleDiff(id string) *difflines.CommitDiff {
	return &difflines.CommitDiff{
		Revision: history.Revision{ID: id, When: time.Unix(0, 0)},
		Files: map[string]difflines.DiffLines{
			"a.go": {Deletions: []difflines.LineRecord{{Index: 1, Content: "x"}}},
		},
		Changes: map[string]history.ChangeKind{"a.go": history.Modified},
	}
}

func sampleGraphs(id string) annotation.Map {
	return annotation.Map{id: {{
		FilePath:  "a.go",
		Revisions: []string{id, "origin"},
		Mappings:  map[string]map[int]int{"origin": {1: 0}},
		SubGraphs: map[string]*annotation.FileAnnotationGraph{},
	}}}
}

func writeShard(t *testing.T, dir, id string, opts results.Options) {
	t.Helper()

	w, err := results.NewWriter(dir, opts)
	require.NoError(t, err)
	require.NoError(t, w.WriteCommits([]*difflines.CommitDiff{sampleDiff(id)}))
	require.NoError(t, w.WriteAnnotations(sampleGraphs(id)))
	require.NoError(t, w.WritePairs([]heuristics.Pair{{Fix: id, Introducer: "origin"}}))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := results.ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, results.FormatYAML, f)

	f, err = results.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, results.FormatJSON, f)

	_, err = results.ParseFormat("xml")
	require.ErrorIs(t, err, results.ErrUnknownFormat)
}

func TestWriter_JSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeShard(t, dir, "f1", results.Options{})

	data, err := os.ReadFile(filepath.Join(dir, "fix_and_introducers_pairs.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[["f1","origin"]]`, string(data))

	data, err = os.ReadFile(filepath.Join(dir, "commits.json"))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"f1":{"diff":{"a.go":[{"add":[],"delete":["1","x"]}]},"changes":{"a.go":"MODIFY"}}}`,
		string(data))

	set, err := results.Read(dir)
	require.NoError(t, err)
	assert.Contains(t, set.Annotations, "f1")
	assert.Len(t, set.Pairs, 1)
}

func TestWriter_YAMLTwinAndCompression(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeShard(t, dir, "f1", results.Options{Format: results.FormatYAML, Compress: true})

	assert.FileExists(t, filepath.Join(dir, "annotations.json.lz4"))
	assert.FileExists(t, filepath.Join(dir, "annotations.yaml.lz4"))
	assert.NoFileExists(t, filepath.Join(dir, "annotations.json"))

	pairs, err := results.ReadPairs(dir)
	require.NoError(t, err)
	assert.Equal(t, []heuristics.Pair{{Fix: "f1", Introducer: "origin"}}, pairs)

	var fromYAML []heuristics.Pair
	require.NoError(t, results.Load(dir, results.PairsName,
		results.LZ4Codec{Inner: results.YAMLCodec{}}, &fromYAML))
	assert.Equal(t, pairs, fromYAML)
}

func TestWriter_EmptyDocuments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	w, err := results.NewWriter(dir, results.Options{})
	require.NoError(t, err)
	require.NoError(t, w.WritePairs(nil))
	require.NoError(t, w.WriteAnnotations(nil))

	data, err := os.ReadFile(filepath.Join(dir, "fix_and_introducers_pairs.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestMerge(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first := filepath.Join(root, "result0")
	second := filepath.Join(root, "result1")

	writeShard(t, first, "f1", results.Options{})
	writeShard(t, second, "f2", results.Options{Compress: true})

	out := filepath.Join(root, "merged")

	stats, err := results.Merge([]string{first, second, filepath.Join(root, "result2")}, out, results.Options{}, nil)
	require.NoError(t, err)

	assert.Equal(t, results.MergeStats{Merged: 2, Skipped: 1, Commits: 2, Annotations: 2, Pairs: 2}, stats)

	pairs, err := results.ReadPairs(out)
	require.NoError(t, err)
	assert.ElementsMatch(t, []heuristics.Pair{
		{Fix: "f1", Introducer: "origin"},
		{Fix: "f2", Introducer: "origin"},
	}, pairs)
}
