package walk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaihowl/git-perf/internal/logging"
	"github.com/kaihowl/git-perf/internal/record"
	"github.com/kaihowl/git-perf/internal/store"
	"github.com/kaihowl/git-perf/internal/vcstest"
	"github.com/kaihowl/git-perf/internal/walk"
)

func TestWalkVisitsInFirstParentOrder(t *testing.T) {
	repo := vcstest.New(t)
	repo.Commit(t, "root")
	repo.Commit(t, "middle")
	repo.Commit(t, "tip")

	s, err := store.Open(repo.Dir, logging.New(0))
	require.NoError(t, err)
	require.NoError(t, s.Append("HEAD", []record.Record{{Name: "x", Value: 1, Timestamp: 1}}))

	var titles []string
	err = walk.Walk(s, "HEAD", 10, nil, func(c walk.Commit) (bool, error) {
		titles = append(titles, c.Title)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tip", "middle", "root"}, titles)
}

func TestWalkStopsEarlyWithoutReadingFurther(t *testing.T) {
	repo := vcstest.New(t)
	repo.Commit(t, "root")
	repo.Commit(t, "middle")
	repo.Commit(t, "tip")

	s, err := store.Open(repo.Dir, logging.New(0))
	require.NoError(t, err)

	visited := 0
	err = walk.Walk(s, "HEAD", 10, nil, func(c walk.Commit) (bool, error) {
		visited++
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visited)
}

func TestWalkFiltersRecords(t *testing.T) {
	repo := vcstest.New(t)
	repo.Commit(t, "head")
	s, err := store.Open(repo.Dir, logging.New(0))
	require.NoError(t, err)
	require.NoError(t, s.Append("HEAD", []record.Record{
		{Name: "bench::a", Value: 1, Timestamp: 1},
		{Name: "bench::b", Value: 2, Timestamp: 1},
	}))

	commits, err := walk.Collect(s, "HEAD", 1, func(r record.Record) bool {
		return strings.HasSuffix(r.Name, "::a")
	})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.Len(t, commits[0].Records, 1)
	assert.Equal(t, "bench::a", commits[0].Records[0].Name)
}
