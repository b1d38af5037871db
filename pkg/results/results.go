package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/Sumatoshi-tech/szz/pkg/annotation"
	"github.com/Sumatoshi-tech/szz/pkg/difflines"
	"github.com/Sumatoshi-tech/szz/pkg/heuristics"
)

// Document base names.
const (
	CommitsName     = "commits"
	AnnotationsName = "annotations"
	PairsName       = "fix_and_introducers_pairs"
)

const dirPerm = 0o750

// ErrUnknownFormat is returned for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects the document encodings written next to each other.
type Format string

// Supported formats. JSON is always written; YAML adds a .yaml twin.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Options configure document output.
type Options struct {
	Format   Format
	Compress bool
}

func (o Options) codecs() []Codec {
	codecs := []Codec{JSONCodec{}}
	if o.Format == FormatYAML {
		codecs = append(codecs, YAMLCodec{})
	}

	if o.Compress {
		for i, c := range codecs {
			codecs[i] = LZ4Codec{Inner: c}
		}
	}

	return codecs
}

// Writer writes result documents into one directory.
type Writer struct {
	dir    string
	codecs []Codec
}

// NewWriter creates dir if needed and returns a writer for it.
func NewWriter(dir string, opts Options) (*Writer, error) {
	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("create result dir: %w", err)
	}

	return &Writer{dir: dir, codecs: opts.codecs()}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) write(name string, doc any) error {
	for _, codec := range w.codecs {
		err := Save(w.dir, name, codec, doc)
		if err != nil {
			return err
		}
	}

	return nil
}

// WriteCommits writes the commit-detail document keyed by revision id.
func (w *Writer) WriteCommits(diffs []*difflines.CommitDiff) error {
	doc := make(map[string]*difflines.CommitDiff, len(diffs))
	for _, diff := range diffs {
		doc[diff.Revision.ID] = diff
	}

	return w.write(CommitsName, doc)
}

// WriteAnnotations writes the annotation document.
func (w *Writer) WriteAnnotations(graphs annotation.Map) error {
	if graphs == nil {
		graphs = annotation.Map{}
	}

	return w.write(AnnotationsName, graphs)
}

// WritePairs writes the [[fix, introducer], ...] document.
func (w *Writer) WritePairs(pairs []heuristics.Pair) error {
	if pairs == nil {
		pairs = []heuristics.Pair{}
	}

	return w.write(PairsName, pairs)
}

// Set holds the raw documents of one result directory.
type Set struct {
	Commits     map[string]json.RawMessage
	Annotations map[string]json.RawMessage
	Pairs       []json.RawMessage
}

// load reads name from dir as plain or LZ4-compressed JSON.
func load(dir, name string, doc any) error {
	err := Load(dir, name, JSONCodec{}, doc)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return Load(dir, name, LZ4Codec{Inner: JSONCodec{}}, doc)
}

// Read loads all three documents of a result directory.
func Read(dir string) (*Set, error) {
	set := &Set{}

	err := load(dir, CommitsName, &set.Commits)
	if err != nil {
		return nil, err
	}

	err = load(dir, AnnotationsName, &set.Annotations)
	if err != nil {
		return nil, err
	}

	err = load(dir, PairsName, &set.Pairs)
	if err != nil {
		return nil, err
	}

	return set, nil
}

// ReadPairs loads the pair document of a result directory.
func ReadPairs(dir string) ([]heuristics.Pair, error) {
	var pairs []heuristics.Pair

	err := load(dir, PairsName, &pairs)
	if err != nil {
		return nil, err
	}

	return pairs, nil
}

// MergeStats summarizes a merge.
type MergeStats struct {
	Merged      int
	Skipped     int
	Commits     int
	Annotations int
	Pairs       int
}

// Merge unions the documents of dirs into out. Missing or unreadable
// directories are logged and skipped.
func Merge(dirs []string, out string, opts Options, logger *slog.Logger) (MergeStats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var stats MergeStats

	merged := &Set{
		Commits:     make(map[string]json.RawMessage),
		Annotations: make(map[string]json.RawMessage),
		Pairs:       []json.RawMessage{},
	}

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			logger.Warn("result dir missing, omitting", "dir", dir)

			stats.Skipped++

			continue
		}

		set, err := Read(dir)
		if err != nil {
			logger.Warn("result dir unreadable, omitting", "dir", dir, "error", err)

			stats.Skipped++

			continue
		}

		maps.Copy(merged.Commits, set.Commits)
		maps.Copy(merged.Annotations, set.Annotations)

		merged.Pairs = append(merged.Pairs, set.Pairs...)
		stats.Merged++
	}

	w, err := NewWriter(out, opts)
	if err != nil {
		return stats, err
	}

	err = w.write(CommitsName, merged.Commits)
	if err != nil {
		return stats, err
	}

	err = w.write(AnnotationsName, merged.Annotations)
	if err != nil {
		return stats, err
	}

	err = w.write(PairsName, merged.Pairs)
	if err != nil {
		return stats, err
	}

	stats.Commits = len(merged.Commits)
	stats.Annotations = len(merged.Annotations)
	stats.Pairs = len(merged.Pairs)

	return stats, nil
}
