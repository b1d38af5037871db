package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/szz/pkg/history/memrepo"
	"github.com/Sumatoshi-tech/szz/pkg/issues"
	"github.com/Sumatoshi-tech/szz/pkg/search"
)

func day(d int) time.Time {
	return time.Date(2020, 2, d, 9, 30, 0, 0, time.UTC)
}

func newRepo() *memrepo.Repository {
	repo := memrepo.New()

	commits := []struct {
		id, msg string
		when    int
	}{
		{"c1", "initial import", 1},
		{"c2", "JENKINS-12 fix NPE in loader", 2},
		{"c3", "Merge JENKINS-12 into stable", 3},
		{"c4", "JENKINS-7 and JENKINS-30: guard empty list", 4},
		{"c5", "cleanup", 5},
	}

	parent := []string(nil)
	for _, c := range commits {
		repo.Commit(memrepo.CommitSpec{
			ID: c.id, Parents: parent, When: day(c.when), Message: c.msg,
			Files: map[string]string{"f.txt": c.id + "\n"},
		})
		parent = []string{c.id}
	}

	return repo
}

func TestSearcher_Find(t *testing.T) {
	t.Parallel()

	s, err := search.New(newRepo(), search.Options{}, nil)
	require.NoError(t, err)

	matches, err := s.Find(context.Background())
	require.NoError(t, err)

	got := make([][2]string, 0, len(matches))
	for _, m := range matches {
		got = append(got, [2]string{m.Key, m.Revision.ID})
	}

	assert.Equal(t, [][2]string{
		{"JENKINS-7", "c4"},
		{"JENKINS-30", "c4"},
		{"JENKINS-12", "c3"},
		{"JENKINS-12", "c2"},
	}, got)
}

func TestSearcher_SinceAndLimit(t *testing.T) {
	t.Parallel()

	s, err := search.New(newRepo(), search.Options{Since: day(3)}, nil)
	require.NoError(t, err)

	matches, err := s.Find(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 3)

	for _, m := range matches {
		assert.NotEqual(t, "c2", m.Revision.ID)
	}

	s, err = search.New(newRepo(), search.Options{Limit: 1}, nil)
	require.NoError(t, err)

	matches, err = s.Find(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "c4", matches[0].Revision.ID)
}

func TestNew_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := search.New(newRepo(), search.Options{Pattern: "(["}, nil)
	require.ErrorIs(t, err, search.ErrInvalidPattern)
}

func TestSelectAndIssueFile(t *testing.T) {
	t.Parallel()

	s, err := search.New(newRepo(), search.Options{}, nil)
	require.NoError(t, err)

	matches, err := s.Find(context.Background())
	require.NoError(t, err)

	file := search.IssueFile(search.Select(matches))

	assert.Equal(t, []string{"JENKINS-12", "JENKINS-30", "JENKINS-7"}, file.Keys())
	assert.Equal(t, "c2", file["JENKINS-12"].Hash, "merge commits are passed over")
	assert.Equal(t, "c4", file["JENKINS-7"].Hash)
	assert.Equal(t, day(4).Format(issues.DateLayout), file["JENKINS-7"].CommitDate)
	assert.Empty(t, file["JENKINS-7"].CreationDate)
}

func TestSelect_FallsBackToNewest(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	repo.Commit(memrepo.CommitSpec{ID: "a", When: day(1), Message: "Cherry-pick JENKINS-5"})
	repo.Commit(memrepo.CommitSpec{ID: "b", Parents: []string{"a"}, When: day(2), Message: "Merge JENKINS-5"})

	s, err := search.New(repo, search.Options{}, nil)
	require.NoError(t, err)

	matches, err := s.Find(context.Background())
	require.NoError(t, err)

	selected := search.Select(matches)
	assert.Equal(t, "b", selected["JENKINS-5"].ID)
}

func TestParseSince(t *testing.T) {
	t.Parallel()

	now := day(10)

	got, err := search.ParseSince("48h", now)
	require.NoError(t, err)
	assert.Equal(t, day(8), got)

	got, err = search.ParseSince("2020-02-03", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC), got)

	got, err = search.ParseSince("2020-02-03T04:05:06Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 2, 3, 4, 5, 6, 0, time.UTC), got)

	_, err = search.ParseSince("last tuesday", now)
	require.ErrorIs(t, err, search.ErrInvalidTimeFormat)
}
