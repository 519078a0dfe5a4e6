package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaihowl/git-perf/internal/logging"
	"github.com/kaihowl/git-perf/internal/record"
	"github.com/kaihowl/git-perf/internal/store"
	"github.com/kaihowl/git-perf/internal/vcstest"
)

func TestAppendAndReadRoundTrip(t *testing.T) {
	repo := vcstest.New(t)
	repo.Commit(t, "head")

	s, err := store.Open(repo.Dir, logging.New(0))
	require.NoError(t, err)

	require.NoError(t, s.Append("HEAD", []record.Record{
		{Name: "bench::load", Value: 42, Timestamp: 1700000000, Epoch: 0},
	}))

	recs, err := s.Read("HEAD")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "bench::load", recs[0].Name)
}

func TestAppendRejectsInvalidRecord(t *testing.T) {
	repo := vcstest.New(t)
	repo.Commit(t, "head")
	s, err := store.Open(repo.Dir, logging.New(0))
	require.NoError(t, err)

	err = s.Append("HEAD", []record.Record{{Name: "bad name", Value: 1, Timestamp: 1}})
	assert.Error(t, err)
}

func TestReadHistoryHeadFirstWithPerCommitRecords(t *testing.T) {
	repo := vcstest.New(t)
	repo.Commit(t, "root")
	repo.Commit(t, "middle")
	repo.Commit(t, "tip")

	s, err := store.Open(repo.Dir, logging.New(0))
	require.NoError(t, err)
	require.NoError(t, s.Append("HEAD", []record.Record{{Name: "x", Value: 1, Timestamp: 1}}))
	require.NoError(t, s.Append("HEAD~2", []record.Record{{Name: "x", Value: 2, Timestamp: 1}}))

	refs, recs, err := s.ReadHistory("HEAD", 3)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "tip", refs[0].Title)
	assert.Len(t, recs[0], 1)
	assert.Len(t, recs[2], 1)
	assert.Empty(t, recs[1])
}

func TestBumpEpochPersistsAndCommits(t *testing.T) {
	repo := vcstest.New(t)
	repo.Commit(t, "head")
	s, err := store.Open(repo.Dir, logging.New(0))
	require.NoError(t, err)

	epoch, err := s.CurrentEpoch("bench::load")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), epoch)

	bumped, err := s.BumpEpoch("bench::load")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), bumped)

	epoch, err = s.CurrentEpoch("bench::load")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), epoch)

	head, err := repo.Raw.Head()
	require.NoError(t, err)
	commit, err := repo.Raw.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Contains(t, commit.Message, "bench::load")
}

func TestListCommitsWithMeasurements(t *testing.T) {
	repo := vcstest.New(t)
	repo.Commit(t, "head")
	s, err := store.Open(repo.Dir, logging.New(0))
	require.NoError(t, err)
	require.NoError(t, s.Append("HEAD", []record.Record{{Name: "x", Value: 1, Timestamp: 1}}))

	hashes, err := s.ListCommitsWithMeasurements()
	require.NoError(t, err)
	assert.Len(t, hashes, 1)
}
