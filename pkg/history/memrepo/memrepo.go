// Package memrepo provides an in-memory history.Repository. Line edits are
// computed with diffmatchpatch and blame follows first parents only.
package memrepo

import (
	"context"
	"crypto/sha1" //nolint:gosec // content addressing, not security.
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/szz/pkg/history"
)

// CommitSpec describes a revision to record. Files are applied on top of the
// first parent's snapshot; Delete removes paths from it.
type CommitSpec struct {
	ID      string
	Parents []string
	When    time.Time
	Message string
	Files   map[string]string
	Delete  []string
}

type commit struct {
	rev   history.Revision
	files map[string]history.ContentID
}

// Repository is a thread-safe in-memory repository.
type Repository struct {
	mu      sync.RWMutex
	commits map[string]*commit
	order   []string
	blobs   map[history.ContentID][]byte
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{
		commits: make(map[string]*commit),
		blobs:   make(map[history.ContentID][]byte),
	}
}

// Commit records a revision and returns it.
func (r *Repository) Commit(spec CommitSpec) history.Revision {
	r.mu.Lock()
	defer r.mu.Unlock()

	files := make(map[string]history.ContentID)

	if len(spec.Parents) > 0 {
		if parent, ok := r.commits[spec.Parents[0]]; ok {
			maps.Copy(files, parent.files)
		}
	}

	for _, path := range spec.Delete {
		delete(files, path)
	}

	for path, content := range spec.Files {
		files[path] = r.storeBlob(content)
	}

	rev := history.Revision{
		ID:      spec.ID,
		Parents: slices.Clone(spec.Parents),
		When:    spec.When,
		Message: spec.Message,
	}

	if _, seen := r.commits[spec.ID]; !seen {
		r.order = append(r.order, spec.ID)
	}

	r.commits[spec.ID] = &commit{rev: rev, files: files}

	return rev
}

func (r *Repository) storeBlob(content string) history.ContentID {
	sum := sha1.Sum([]byte(content)) //nolint:gosec // content addressing.
	id := history.ContentID(hex.EncodeToString(sum[:]))
	r.blobs[id] = []byte(content)

	return id
}

func (r *Repository) lookup(ref string) (*commit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.commits[ref]; ok {
		return c, nil
	}

	var found *commit

	for id, c := range r.commits {
		if ref != "" && strings.HasPrefix(id, ref) {
			if found != nil {
				return nil, fmt.Errorf("%w: ambiguous %q", history.ErrRevisionNotFound, ref)
			}

			found = c
		}
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %q", history.ErrRevisionNotFound, ref)
	}

	return found, nil
}

func (r *Repository) blob(id history.ContentID) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", history.ErrContentNotFound, id)
	}

	return data, nil
}

// Resolve implements history.Repository.
func (r *Repository) Resolve(_ context.Context, ref string) (history.Revision, error) {
	c, err := r.lookup(ref)
	if err != nil {
		return history.Revision{}, err
	}

	return c.rev, nil
}

// Diff implements history.Repository. Renames are reported as a delete plus an add.
func (r *Repository) Diff(_ context.Context, oldRev, newRev string) ([]history.ChangedFile, error) {
	oldCommit, err := r.lookup(oldRev)
	if err != nil {
		return nil, err
	}

	newCommit, err := r.lookup(newRev)
	if err != nil {
		return nil, err
	}

	paths := slices.Sorted(maps.Keys(oldCommit.files))
	for path := range newCommit.files {
		if _, ok := oldCommit.files[path]; !ok {
			paths = append(paths, path)
		}
	}

	slices.Sort(paths)

	var changes []history.ChangedFile

	for _, path := range paths {
		oldID, inOld := oldCommit.files[path]
		newID, inNew := newCommit.files[path]

		switch {
		case inOld && inNew && oldID != newID:
			changes = append(changes, history.ChangedFile{
				Kind: history.Modified, OldPath: path, NewPath: path, OldContent: oldID, NewContent: newID,
			})
		case inOld && !inNew:
			changes = append(changes, history.ChangedFile{Kind: history.Deleted, OldPath: path, OldContent: oldID})
		case !inOld && inNew:
			changes = append(changes, history.ChangedFile{Kind: history.Added, NewPath: path, NewContent: newID})
		}
	}

	return changes, nil
}

// EditList implements history.Repository.
func (r *Repository) EditList(_ context.Context, oldContent, newContent history.ContentID) ([]history.Edit, error) {
	oldData, err := r.blob(oldContent)
	if err != nil {
		return nil, err
	}

	newData, err := r.blob(newContent)
	if err != nil {
		return nil, err
	}

	return lineEdits(string(oldData), string(newData)), nil
}

// ReadBlobLines implements history.Repository.
func (r *Repository) ReadBlobLines(_ context.Context, id history.ContentID) ([]string, error) {
	data, err := r.blob(id)
	if err != nil {
		return nil, err
	}

	return history.SplitLines(data), nil
}

// ReadFileLines implements history.Repository.
func (r *Repository) ReadFileLines(ctx context.Context, rev, path string) ([]string, error) {
	c, err := r.lookup(rev)
	if err != nil {
		return nil, err
	}

	id, ok := c.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", history.ErrPathNotFound, path, rev)
	}

	return r.ReadBlobLines(ctx, id)
}

// Walk implements history.Walker. The head is the most recently recorded
// revision; every revision reachable from it is visited in reverse recording order.
func (r *Repository) Walk(ctx context.Context, fn func(history.Revision) error) error {
	r.mu.RLock()
	order := slices.Clone(r.order)
	reachable := make(map[string]bool, len(order))

	if len(order) > 0 {
		stack := []string{order[len(order)-1]}

		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			c, ok := r.commits[id]
			if !ok || reachable[id] {
				continue
			}

			reachable[id] = true
			stack = append(stack, c.rev.Parents...)
		}
	}
	r.mu.RUnlock()

	for _, id := range slices.Backward(order) {
		if !reachable[id] {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		c, err := r.lookup(id)
		if err != nil {
			return err
		}

		if err := fn(c.rev); err != nil {
			if errors.Is(err, history.ErrStopWalk) {
				return nil
			}

			return err
		}
	}

	return nil
}

// Blame implements history.Repository.
func (r *Repository) Blame(_ context.Context, startRev, path string) (history.Blame, error) {
	c, err := r.lookup(startRev)
	if err != nil {
		return nil, err
	}

	return r.blame(c, path)
}

func (r *Repository) blame(c *commit, path string) (history.Blame, error) {
	id, ok := c.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", history.ErrPathNotFound, path, c.rev.ID)
	}

	data, err := r.blob(id)
	if err != nil {
		return nil, err
	}

	lines := history.SplitLines(data)
	result := make(history.Blame, len(lines))

	var (
		parent   *commit
		parentID history.ContentID
	)

	if !c.rev.IsRoot() {
		parent, _ = r.lookup(c.rev.Parents[0])
	}

	if parent != nil {
		parentID, ok = parent.files[path]
	}

	if parent == nil || !ok {
		for i := range lines {
			result[i] = history.LineOrigin{Revision: c.rev.ID, Line: i}
		}

		return result, nil
	}

	if parentID == id {
		return r.blame(parent, path)
	}

	parentBlame, err := r.blame(parent, path)
	if err != nil {
		return nil, err
	}

	parentData, err := r.blob(parentID)
	if err != nil {
		return nil, err
	}

	oldPos, newPos := 0, 0

	carry := func(until int) {
		for ; newPos < until; newPos, oldPos = newPos+1, oldPos+1 {
			if origin, found := parentBlame[oldPos]; found {
				result[newPos] = origin
			}
		}
	}

	for _, edit := range lineEdits(string(parentData), string(data)) {
		carry(edit.BeginNew)

		for line := edit.BeginNew; line < edit.EndNew; line++ {
			result[line] = history.LineOrigin{Revision: c.rev.ID, Line: line}
		}

		oldPos, newPos = edit.EndOld, edit.EndNew
	}

	carry(len(lines))

	return result, nil
}

// lineEdits diffs two texts line by line. Each line is encoded as one rune so the
// rune count of a diff chunk is its line count.
func lineEdits(oldText, newText string) []history.Edit {
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	src, dst, _ := dmp.DiffLinesToRunes(terminate(oldText), terminate(newText))
	diffs := dmp.DiffCleanupMerge(dmp.DiffMainRunes(src, dst, false))

	var (
		edits   []history.Edit
		pending *history.Edit
	)

	oldPos, newPos := 0, 0

	for _, d := range diffs {
		count := utf8.RuneCountInString(d.Text)

		if d.Type == diffmatchpatch.DiffEqual {
			if pending != nil {
				edits = append(edits, *pending)
				pending = nil
			}

			oldPos += count
			newPos += count

			continue
		}

		if pending == nil {
			pending = &history.Edit{BeginOld: oldPos, EndOld: oldPos, BeginNew: newPos, EndNew: newPos}
		}

		if d.Type == diffmatchpatch.DiffDelete {
			oldPos += count
			pending.EndOld = oldPos
		} else {
			newPos += count
			pending.EndNew = newPos
		}
	}

	if pending != nil {
		edits = append(edits, *pending)
	}

	return edits
}

func terminate(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}

	return text + "\n"
}

var (
	_ history.Repository = (*Repository)(nil)
	_ history.Walker     = (*Repository)(nil)
)
