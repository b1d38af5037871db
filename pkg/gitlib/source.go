package gitlib

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/szz/pkg/history"
)

// Source adapts a Repository to history.Repository. Calls are serialized so a
// Source may be handed to code that fans out, but each shard should still open
// its own Repository for throughput.
type Source struct {
	mu   sync.Mutex
	repo *Repository
}

// NewSource wraps repo.
func NewSource(repo *Repository) *Source {
	return &Source{repo: repo}
}

// Repository returns the wrapped repository.
func (s *Source) Repository() *Repository {
	return s.repo
}

// Resolve implements history.Repository.
func (s *Source) Resolve(_ context.Context, ref string) (history.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	commit, err := s.repo.RevparseCommit(ref)
	if err != nil {
		return history.Revision{}, fmt.Errorf("%w: %w", history.ErrRevisionNotFound, err)
	}
	defer commit.Free()

	return commit.Revision(), nil
}

// Diff implements history.Repository.
func (s *Source) Diff(_ context.Context, oldRev, newRev string) ([]history.ChangedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldTree, err := s.commitTree(oldRev)
	if err != nil {
		return nil, err
	}
	defer oldTree.Free()

	newTree, err := s.commitTree(newRev)
	if err != nil {
		return nil, err
	}
	defer newTree.Free()

	return TreeDiff(s.repo, oldTree, newTree)
}

func (s *Source) commitTree(rev string) (*Tree, error) {
	commit, err := s.repo.RevparseCommit(rev)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", history.ErrRevisionNotFound, err)
	}
	defer commit.Free()

	return commit.Tree()
}

// EditList implements history.Repository.
func (s *Source) EditList(_ context.Context, oldContent, newContent history.ContentID) ([]history.Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldBlob, err := s.blob(oldContent)
	if err != nil {
		return nil, err
	}
	defer oldBlob.Free()

	newBlob, err := s.blob(newContent)
	if err != nil {
		return nil, err
	}
	defer newBlob.Free()

	return EditList(oldBlob, newBlob)
}

func (s *Source) blob(id history.ContentID) (*Blob, error) {
	hash, err := ParseHash(string(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", history.ErrContentNotFound, err)
	}

	blob, err := s.repo.LookupBlob(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", history.ErrContentNotFound, err)
	}

	return blob, nil
}

// ReadBlobLines implements history.Repository.
func (s *Source) ReadBlobLines(_ context.Context, id history.ContentID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.blob(id)
	if err != nil {
		return nil, err
	}
	defer blob.Free()

	return blob.Lines(), nil
}

// Blame implements history.Repository.
func (s *Source) Blame(_ context.Context, startRev, path string) (history.Blame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := ParseHash(startRev)
	if err != nil {
		commit, revErr := s.repo.RevparseCommit(startRev)
		if revErr != nil {
			return nil, fmt.Errorf("%w: %w", history.ErrRevisionNotFound, revErr)
		}

		hash = commit.Hash()
		commit.Free()
	}

	return s.repo.BlameFile(hash, path)
}

// ReadFileLines implements history.Repository.
func (s *Source) ReadFileLines(_ context.Context, rev, path string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.commitTree(rev)
	if err != nil {
		return nil, err
	}
	defer tree.Free()

	entry, err := tree.EntryByPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", history.ErrPathNotFound, err)
	}

	if !entry.IsBlob() {
		return nil, fmt.Errorf("%w: %s is not a file", history.ErrPathNotFound, path)
	}

	blob, err := s.repo.LookupBlob(entry.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", history.ErrContentNotFound, err)
	}
	defer blob.Free()

	return blob.Lines(), nil
}

// Walk implements history.Walker over the commits reachable from HEAD.
// fn must not call back into s.
func (s *Source) Walk(ctx context.Context, fn func(history.Revision) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter, err := s.repo.Log()
	if err != nil {
		return err
	}
	defer iter.Close()

	err = iter.ForEach(func(commit *Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return fn(commit.Revision())
	})
	if errors.Is(err, history.ErrStopWalk) {
		return nil
	}

	return err
}

var (
	_ history.Repository = (*Source)(nil)
	_ history.Walker     = (*Source)(nil)
)
