// Package history defines the narrow version-control interface consumed by the
// SZZ core: revision resolution, tree diffs, line edit lists, blame and file reads.
package history

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by repository implementations.
var (
	ErrRevisionNotFound = errors.New("revision not found")
	ErrPathNotFound     = errors.New("path not found")
	ErrContentNotFound  = errors.New("content not found")
	// ErrStopWalk ends a Walk early without reporting an error.
	ErrStopWalk = errors.New("stop walk")
)

// Revision is an immutable snapshot of the repository.
type Revision struct {
	ID      string
	Parents []string
	// When is the committer timestamp.
	When    time.Time
	Message string
}

// IsRoot reports whether the revision has no parents.
func (r Revision) IsRoot() bool {
	return len(r.Parents) == 0
}

// ChangeKind classifies a changed file between two revisions.
type ChangeKind int

const (
	// Added means the file did not exist in the old revision.
	Added ChangeKind = iota
	// Modified means the file content changed in place.
	Modified
	// Deleted means the file does not exist in the new revision.
	Deleted
	// Renamed means the file moved (possibly with content changes).
	Renamed
)

// String returns the upper-case change kind name used in result documents.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "ADD"
	case Modified:
		return "MODIFY"
	case Deleted:
		return "DELETE"
	case Renamed:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ContentID identifies file content (a blob). Empty means the side is absent.
type ContentID string

// ChangedFile is one file changed between a revision and its reference parent.
type ChangedFile struct {
	Kind       ChangeKind
	OldPath    string
	NewPath    string
	OldContent ContentID
	NewContent ContentID
}

// Path returns the path the change is keyed by: the new path, or the old one for deletions.
func (c ChangedFile) Path() string {
	if c.NewPath != "" {
		return c.NewPath
	}

	return c.OldPath
}

// Edit is a contiguous region [BeginOld,EndOld) -> [BeginNew,EndNew) that differs
// between two file versions. Indices are 0-based.
type Edit struct {
	BeginOld int
	EndOld   int
	BeginNew int
	EndNew   int
}

// LineOrigin attributes a line to the revision that last modified it and the
// line index it had in that revision.
type LineOrigin struct {
	Revision string
	Line     int
}

// Blame maps 0-based line indices of a blamed file to their origins.
// Lines the blame could not attribute are absent.
type Blame map[int]LineOrigin

// Repository is the read layer the SZZ core depends on. All operations may fail;
// callers degrade failures to "no data".
type Repository interface {
	// Resolve turns a reference (full or abbreviated id, branch, tag) into a revision.
	Resolve(ctx context.Context, ref string) (Revision, error)
	// Diff lists the files changed from oldRev to newRev.
	Diff(ctx context.Context, oldRev, newRev string) ([]ChangedFile, error)
	// EditList computes the line edits turning oldContent into newContent.
	EditList(ctx context.Context, oldContent, newContent ContentID) ([]Edit, error)
	// ReadBlobLines returns the lines of a content object.
	ReadBlobLines(ctx context.Context, id ContentID) ([]string, error)
	// Blame attributes every line of path as of startRev.
	Blame(ctx context.Context, startRev, path string) (Blame, error)
	// ReadFileLines returns the lines of path as of rev.
	ReadFileLines(ctx context.Context, rev, path string) ([]string, error)
}

// Walker lists the revisions reachable from the head, newest first.
type Walker interface {
	// Walk calls fn for each revision. Returning ErrStopWalk ends the walk
	// cleanly; any other error is returned.
	Walk(ctx context.Context, fn func(Revision) error) error
}
