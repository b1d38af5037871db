package difflines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/szz/pkg/alg/lru"
	"github.com/Sumatoshi-tech/szz/pkg/history"
)

// DefaultCacheSize is the number of commit diffs a Differ keeps in memory.
const DefaultCacheSize = 512

// CommitDiff holds the diff lines of every file a revision changed relative to
// its first parent. Root revisions have no files.
type CommitDiff struct {
	Revision history.Revision
	Files    map[string]DiffLines
	Changes  map[string]history.ChangeKind
}

// Lines returns the diff lines recorded for path.
func (c *CommitDiff) Lines(path string) (DiffLines, bool) {
	lines, ok := c.Files[path]

	return lines, ok
}

// Paths returns the changed paths in sorted order.
func (c *CommitDiff) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	for path := range c.Files {
		paths = append(paths, path)
	}

	slices.Sort(paths)

	return paths
}

type commitDiffJSON struct {
	Diff    map[string][]DiffLines        `json:"diff"`
	Changes map[string]history.ChangeKind `json:"changes"`
}

// MarshalJSON writes {"diff": {path: [lines]}, "changes": {path: kind}}.
func (c *CommitDiff) MarshalJSON() ([]byte, error) {
	out := commitDiffJSON{
		Diff:    make(map[string][]DiffLines, len(c.Files)),
		Changes: c.Changes,
	}

	for path, lines := range c.Files {
		out.Diff[path] = []DiffLines{lines}
	}

	if out.Changes == nil {
		out.Changes = map[string]history.ChangeKind{}
	}

	return json.Marshal(out)
}

// Differ computes and memoizes commit diffs for one repository.
type Differ struct {
	repo      history.Repository
	extractor *Extractor
	cache     *lru.Cache[string, *CommitDiff]
}

// NewDiffer creates a differ keeping up to cacheSize commit diffs.
func NewDiffer(repo history.Repository, extractor *Extractor, cacheSize int) *Differ {
	return &Differ{
		repo:      repo,
		extractor: extractor,
		cache:     lru.New[string, *CommitDiff](cacheSize),
	}
}

// Repository returns the repository the differ reads from.
func (d *Differ) Repository() history.Repository {
	return d.repo
}

// CommitDiff resolves ref and returns its diff against the first parent.
func (d *Differ) CommitDiff(ctx context.Context, ref string) (*CommitDiff, error) {
	if cached, ok := d.cache.Get(ref); ok {
		return cached, nil
	}

	rev, err := d.repo.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}

	return d.RevisionDiff(ctx, rev)
}

// RevisionDiff returns the diff of an already resolved revision.
func (d *Differ) RevisionDiff(ctx context.Context, rev history.Revision) (*CommitDiff, error) {
	if cached, ok := d.cache.Get(rev.ID); ok {
		return cached, nil
	}

	diff := &CommitDiff{
		Revision: rev,
		Files:    make(map[string]DiffLines),
		Changes:  make(map[string]history.ChangeKind),
	}

	if !rev.IsRoot() {
		changes, err := d.repo.Diff(ctx, rev.Parents[0], rev.ID)
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", rev.ID, err)
		}

		for _, change := range changes {
			path := change.Path()
			diff.Files[path] = d.extractor.ExtractFile(ctx, d.repo, change)
			diff.Changes[path] = change.Kind
		}
	}

	d.cache.Put(rev.ID, diff)

	return diff, nil
}

// CommitDiffs computes the diffs of several references, keyed by the
// requested ref. Revisions that changed no files are left out. Refs that fail
// are reported in the joined error.
func (d *Differ) CommitDiffs(ctx context.Context, refs []string) (map[string]*CommitDiff, error) {
	diffs := make(map[string]*CommitDiff, len(refs))

	var errs []error

	for _, ref := range refs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())

			break
		}

		diff, err := d.CommitDiff(ctx, ref)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		if len(diff.Files) > 0 {
			diffs[ref] = diff
		}
	}

	return diffs, errors.Join(errs...)
}
