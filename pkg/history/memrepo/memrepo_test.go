package memrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/szz/pkg/history"
	"github.com/Sumatoshi-tech/szz/pkg/history/memrepo"
)

func newRepo() *memrepo.Repository {
	repo := memrepo.New()
	base := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.Commit(memrepo.CommitSpec{
		ID: "aaa111", When: base, Message: "init",
		Files: map[string]string{"f.go": "package f\nfunc A() {}\nfunc B() {}\n", "g.go": "package g\n"},
	})
	repo.Commit(memrepo.CommitSpec{
		ID: "bbb222", Parents: []string{"aaa111"}, When: base.Add(time.Hour), Message: "change B",
		Files: map[string]string{"f.go": "package f\nfunc A() {}\nfunc B() { return }\nfunc C() {}\n"},
	})
	repo.Commit(memrepo.CommitSpec{
		ID: "ccc333", Parents: []string{"bbb222"}, When: base.Add(2 * time.Hour), Message: "drop g",
		Delete: []string{"g.go"},
	})

	return repo
}

func TestResolve_Prefix(t *testing.T) {
	t.Parallel()

	repo := newRepo()

	rev, err := repo.Resolve(context.Background(), "bbb")
	require.NoError(t, err)
	assert.Equal(t, "bbb222", rev.ID)

	_, err = repo.Resolve(context.Background(), "zzz")
	require.ErrorIs(t, err, history.ErrRevisionNotFound)
}

func TestDiff_Kinds(t *testing.T) {
	t.Parallel()

	repo := newRepo()

	changes, err := repo.Diff(context.Background(), "bbb222", "ccc333")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, history.Deleted, changes[0].Kind)
	assert.Equal(t, "g.go", changes[0].Path())
	assert.Empty(t, changes[0].NewContent)
}

func TestEditList(t *testing.T) {
	t.Parallel()

	repo := newRepo()

	changes, err := repo.Diff(context.Background(), "aaa111", "bbb222")
	require.NoError(t, err)
	require.Len(t, changes, 1)

	edits, err := repo.EditList(context.Background(), changes[0].OldContent, changes[0].NewContent)
	require.NoError(t, err)

	want := []history.Edit{{BeginOld: 2, EndOld: 3, BeginNew: 2, EndNew: 4}}
	if diff := cmp.Diff(want, edits); diff != "" {
		t.Errorf("edit list mismatch (-want +got):\n%s", diff)
	}
}

func TestBlame_FollowsFirstParent(t *testing.T) {
	t.Parallel()

	blame, err := newRepo().Blame(context.Background(), "ccc333", "f.go")
	require.NoError(t, err)

	want := history.Blame{
		0: {Revision: "aaa111", Line: 0},
		1: {Revision: "aaa111", Line: 1},
		2: {Revision: "bbb222", Line: 2},
		3: {Revision: "bbb222", Line: 3},
	}
	if diff := cmp.Diff(want, blame); diff != "" {
		t.Errorf("blame mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFileLines(t *testing.T) {
	t.Parallel()

	repo := newRepo()

	lines, err := repo.ReadFileLines(context.Background(), "aaa111", "g.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"package g"}, lines)

	_, err = repo.ReadFileLines(context.Background(), "ccc333", "g.go")
	require.ErrorIs(t, err, history.ErrPathNotFound)
}

func TestWalk(t *testing.T) {
	t.Parallel()

	repo := newRepo()

	var ids []string

	err := repo.Walk(context.Background(), func(rev history.Revision) error {
		ids = append(ids, rev.ID)
		if rev.ID == "bbb222" {
			return history.ErrStopWalk
		}

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ccc333", "bbb222"}, ids)
}
