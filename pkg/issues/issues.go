// Package issues loads the resolved-issue file that names fix revisions and
// keeps the dates recorded for each of them.
package issues

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// DateLayout is the layout of issue dates, e.g. "2018-03-07 14:02:11 +0100".
const DateLayout = "2006-01-02 15:04:05 -0700"

// Sentinel errors.
var (
	ErrInvalidFile = errors.New("invalid issue file")
	ErrInvalidDate = errors.New("invalid issue date")
	ErrNoDate      = errors.New("issue date not recorded")
)

//go:embed issues.schema.json
var schema []byte

// Entry is one issue as written in the issue file.
type Entry struct {
	Hash           string `json:"hash"                     yaml:"hash"`
	CreationDate   string `json:"creationdate,omitempty"   yaml:"creationdate,omitempty"`
	ResolutionDate string `json:"resolutiondate,omitempty" yaml:"resolutiondate,omitempty"`
	CommitDate     string `json:"commitdate,omitempty"     yaml:"commitdate,omitempty"`
}

// Record returns the dates of the entry.
func (e Entry) Record() Record {
	return Record{CreationDate: e.CreationDate, ResolutionDate: e.ResolutionDate, CommitDate: e.CommitDate}
}

// File maps issue keys to their entries.
type File map[string]Entry

// Keys returns the issue keys in sorted order.
func (f File) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// Hashes returns the fix revision of every issue, ordered by issue key.
func (f File) Hashes() []string {
	hashes := make([]string, 0, len(f))
	for _, key := range f.Keys() {
		hashes = append(hashes, f[key].Hash)
	}

	return hashes
}

// Store indexes the entries by fix revision.
func (f File) Store() *Store {
	store := NewStore()
	for _, key := range f.Keys() {
		entry := f[key]
		store.Put(entry.Hash, entry.Record())
	}

	return store
}

// Parse validates data against the issue file schema and decodes it.
func Parse(data []byte) (File, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, strings.Join(msgs, "; "))
	}

	var file File

	err = json.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	return file, nil
}

// Load reads and parses the issue file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read issue file: %w", err)
	}

	return Parse(data)
}

// Write encodes file as JSON at path.
func Write(path string, file File) error {
	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode issue file: %w", err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("write issue file: %w", err)
	}

	return nil
}

// ParseDate parses an issue date in DateLayout.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, ErrNoDate
	}

	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidDate, value, err)
	}

	return t, nil
}
