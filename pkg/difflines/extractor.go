// Package difflines turns line edit lists into classified, context-padded
// insertion and deletion records, and computes them per revision.
package difflines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Sumatoshi-tech/szz/pkg/history"
)

// ErrNegativeContext is returned when the context line count is below zero.
var ErrNegativeContext = errors.New("diff context can't be lower than 0")

// LineRecord is one recorded line. Content holds the decimal index when line
// text is omitted.
type LineRecord struct {
	Index   int
	Content string
}

// DiffLines holds the recorded lines of one file between a revision and its parent.
// Leading, trailing and in-between context lines are recorded as insertions.
type DiffLines struct {
	Insertions []LineRecord
	Deletions  []LineRecord
}

// IsEmpty reports whether nothing was recorded.
func (d DiffLines) IsEmpty() bool {
	return len(d.Insertions) == 0 && len(d.Deletions) == 0
}

// DeletedIndices returns the old-file indices of all deletions, in order.
func (d DiffLines) DeletedIndices() []int {
	indices := make([]int, len(d.Deletions))
	for i, rec := range d.Deletions {
		indices[i] = rec.Index
	}

	return indices
}

type diffLinesJSON struct {
	Add    []string `json:"add"`
	Delete []string `json:"delete"`
}

func flatten(records []LineRecord) []string {
	out := make([]string, 0, 2*len(records))
	for _, rec := range records {
		out = append(out, strconv.Itoa(rec.Index), rec.Content)
	}

	return out
}

func unflatten(values []string) ([]LineRecord, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("odd number of line values: %d", len(values))
	}

	records := make([]LineRecord, 0, len(values)/2)

	for i := 0; i < len(values); i += 2 {
		index, err := strconv.Atoi(values[i])
		if err != nil {
			return nil, fmt.Errorf("line index %q: %w", values[i], err)
		}

		records = append(records, LineRecord{Index: index, Content: values[i+1]})
	}

	return records, nil
}

// MarshalJSON encodes records as flat [index, content, ...] arrays under "add" and "delete".
func (d DiffLines) MarshalJSON() ([]byte, error) {
	return json.Marshal(diffLinesJSON{Add: flatten(d.Insertions), Delete: flatten(d.Deletions)})
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (d *DiffLines) UnmarshalJSON(data []byte) error {
	var raw diffLinesJSON

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	d.Insertions, err = unflatten(raw.Add)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	d.Deletions, err = unflatten(raw.Delete)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Extractor records diff lines with a fixed amount of surrounding context.
type Extractor struct {
	context      int
	omitLineText bool
}

// NewExtractor creates an extractor. context is the number of unchanged lines
// recorded around each hunk.
func NewExtractor(context int, omitLineText bool) (*Extractor, error) {
	if context < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeContext, context)
	}

	return &Extractor{context: context, omitLineText: omitLineText}, nil
}

// Context returns the configured context line count.
func (e *Extractor) Context() int {
	return e.context
}

// Extract walks the edits over both file versions and records their lines.
func (e *Extractor) Extract(oldLines, newLines []string, edits []history.Edit) DiffLines {
	var lines DiffLines

	for i := 0; i < len(edits); {
		last := e.hunkEnd(edits, i)

		oldPos := max(edits[i].BeginOld-e.context, 0)
		oldEnd := min(edits[last].EndOld+e.context, len(oldLines))
		newPos := max(edits[i].BeginNew-e.context, 0)
		newEnd := min(edits[last].EndNew+e.context, len(newLines))

		for cur := i; oldPos < oldEnd || newPos < newEnd; {
			var edit history.Edit
			if cur <= last {
				edit = edits[cur]
			}

			switch {
			case cur > last || oldPos < edit.BeginOld:
				if oldPos >= len(oldLines) {
					oldPos, newPos = oldEnd, newEnd

					continue
				}

				lines.Insertions = append(lines.Insertions, e.record(oldPos, oldLines))
				oldPos++
				newPos++
			case oldPos < edit.EndOld:
				lines.Deletions = append(lines.Deletions, e.record(oldPos, oldLines))
				oldPos++
			case newPos < edit.EndNew:
				lines.Insertions = append(lines.Insertions, e.record(newPos, newLines))
				newPos++
			}

			if cur <= last && oldPos >= edit.EndOld && newPos >= edit.EndNew {
				cur++
			}
		}

		i = last + 1
	}

	return lines
}

// hunkEnd returns the index of the last edit merged into the hunk starting at i.
// Edits merge while the gap to the next one is at most twice the context in both
// coordinate spaces.
func (e *Extractor) hunkEnd(edits []history.Edit, i int) int {
	last := i

	for last+1 < len(edits) {
		prev, next := edits[last], edits[last+1]

		if next.BeginOld-prev.EndOld > 2*e.context || next.BeginNew-prev.EndNew > 2*e.context {
			break
		}

		last++
	}

	return last
}

func (e *Extractor) record(index int, lines []string) LineRecord {
	if e.omitLineText {
		return LineRecord{Index: index, Content: strconv.Itoa(index)}
	}

	return LineRecord{Index: index, Content: lines[index]}
}

// ExtractFile loads both sides of a changed file and records its diff lines.
// Files whose old or new content cannot be loaded (added or deleted files) yield
// empty DiffLines.
func (e *Extractor) ExtractFile(ctx context.Context, repo history.Repository, change history.ChangedFile) DiffLines {
	if change.OldContent == "" || change.NewContent == "" {
		return DiffLines{}
	}

	oldLines, err := repo.ReadBlobLines(ctx, change.OldContent)
	if err != nil {
		return DiffLines{}
	}

	newLines, err := repo.ReadBlobLines(ctx, change.NewContent)
	if err != nil {
		return DiffLines{}
	}

	edits, err := repo.EditList(ctx, change.OldContent, change.NewContent)
	if err != nil {
		return DiffLines{}
	}

	return e.Extract(oldLines, newLines, edits)
}
