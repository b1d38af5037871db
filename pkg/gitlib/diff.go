package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/szz/pkg/history"
)

// Diff wraps a libgit2 tree diff.
type Diff struct {
	diff *git2go.Diff
}

// NumDeltas returns the number of deltas in the diff.
func (d *Diff) NumDeltas() (int, error) {
	numDeltas, err := d.diff.NumDeltas()
	if err != nil {
		return 0, fmt.Errorf("get num deltas: %w", err)
	}

	return numDeltas, nil
}

// Delta returns the delta at the given index.
func (d *Diff) Delta(index int) (git2go.DiffDelta, error) {
	delta, err := d.diff.Delta(index)
	if err != nil {
		return git2go.DiffDelta{}, fmt.Errorf("get delta: %w", err)
	}

	return delta, nil
}

// Free releases the diff resources.
func (d *Diff) Free() {
	if d.diff == nil {
		return
	}

	// Free errors are not actionable during cleanup.
	_ = d.diff.Free()
	d.diff = nil
}

// TreeDiff lists the files changed between two trees. Either tree may be nil.
// Unchanged trees short-circuit to an empty list.
func TreeDiff(repo *Repository, oldTree, newTree *Tree) ([]history.ChangedFile, error) {
	if oldTree != nil && newTree != nil && oldTree.Hash() == newTree.Hash() {
		return nil, nil
	}

	diff, err := repo.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return nil, err
	}
	defer diff.Free()

	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return nil, err
	}

	changes := make([]history.ChangedFile, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			continue
		}

		change, ok := changedFile(delta)
		if ok {
			changes = append(changes, change)
		}
	}

	return changes, nil
}

func changedFile(delta git2go.DiffDelta) (history.ChangedFile, bool) {
	oldSide := history.ChangedFile{OldPath: delta.OldFile.Path, OldContent: contentID(delta.OldFile.Oid)}
	newPath, newContent := delta.NewFile.Path, contentID(delta.NewFile.Oid)

	switch delta.Status {
	case git2go.DeltaAdded:
		return history.ChangedFile{Kind: history.Added, NewPath: newPath, NewContent: newContent}, true
	case git2go.DeltaDeleted:
		oldSide.Kind = history.Deleted

		return oldSide, true
	case git2go.DeltaModified, git2go.DeltaTypeChange:
		oldSide.Kind = history.Modified
	case git2go.DeltaRenamed, git2go.DeltaCopied:
		oldSide.Kind = history.Renamed
	case git2go.DeltaUnmodified, git2go.DeltaIgnored, git2go.DeltaUntracked,
		git2go.DeltaUnreadable, git2go.DeltaConflicted:
		return history.ChangedFile{}, false
	default:
		return history.ChangedFile{}, false
	}

	oldSide.NewPath = newPath
	oldSide.NewContent = newContent

	return oldSide, true
}

func contentID(oid *git2go.Oid) history.ContentID {
	h := HashFromOid(oid)
	if h.IsZero() {
		return ""
	}

	return history.ContentID(h.String())
}

// EditList computes the line edits between two blobs with zero context lines.
// Binary blobs produce no edits.
func EditList(oldBlob, newBlob *Blob) ([]history.Edit, error) {
	if oldBlob.IsBinary() || newBlob.IsBinary() {
		return nil, nil
	}

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	opts.ContextLines = 0
	opts.InterhunkLines = 0

	var edits []history.Edit

	fileCallback := func(_ git2go.DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		return func(hunk git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			edits = append(edits, hunkEdit(hunk))

			return func(git2go.DiffLine) error { return nil }, nil
		}, nil
	}

	err = git2go.DiffBlobs(oldBlob.blob, "", newBlob.blob, "", &opts, fileCallback, git2go.DiffDetailHunks)
	if err != nil {
		return nil, fmt.Errorf("diff blobs: %w", err)
	}

	return edits, nil
}

// hunkEdit converts a zero-context unified hunk header to a 0-based edit.
// An empty side starts after the 1-based line it names.
func hunkEdit(hunk git2go.DiffHunk) history.Edit {
	beginOld := hunk.OldStart
	if hunk.OldLines > 0 {
		beginOld--
	}

	beginNew := hunk.NewStart
	if hunk.NewLines > 0 {
		beginNew--
	}

	return history.Edit{
		BeginOld: beginOld,
		EndOld:   beginOld + hunk.OldLines,
		BeginNew: beginNew,
		EndNew:   beginNew + hunk.NewLines,
	}
}
