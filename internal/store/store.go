// Package store implements the Store component (spec §4.3): the single
// place where measurement records cross from in-memory Go values to git
// objects and back, built directly on internal/vcs and internal/record.
package store

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"

	"github.com/kaihowl/git-perf/internal/config"
	"github.com/kaihowl/git-perf/internal/logging"
	"github.com/kaihowl/git-perf/internal/record"
	"github.com/kaihowl/git-perf/internal/vcs"
)

// Store is the append/read/push/pull/prune surface git-perf's higher-level
// components (walker, selector, audit engine, importers, CLI) are built on.
type Store struct {
	repo *vcs.Repository
	log  logging.Logger
}

// Open opens the git-perf store for the repository at path.
func Open(path string, log logging.Logger) (*Store, error) {
	repo, err := vcs.Open(path, log)
	if err != nil {
		return nil, err
	}
	return &Store{repo: repo, log: log}, nil
}

// CommitRef names a resolved commit alongside the metadata a downstream
// walker or renderer needs without re-reading the object (spec §4.4).
type CommitRef struct {
	Hash      string
	Time      time.Time
	Title     string
	Author    string
}

// Append resolves committish (defaulting to HEAD) and appends records to
// its current write shard. It never reads the commit's existing records,
// per spec §4.3.
func (s *Store) Append(committish string, records []record.Record) error {
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return errors.Wrapf(err, "invalid record %q", records[i].Name)
		}
	}
	commit, err := s.repo.ResolveCommit(committish)
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := record.WriteAll(&sb, records); err != nil {
		return errors.Wrap(err, "encoding records")
	}
	return s.repo.AppendBlob(commit.Hash, []byte(sb.String()))
}

// Read returns the union of records attached to committish across every
// reachable write shard and the canonical ref. Order is unspecified.
func (s *Store) Read(committish string) ([]record.Record, error) {
	commit, err := s.repo.ResolveCommit(committish)
	if err != nil {
		return nil, err
	}
	return s.readCommit(commit.Hash.String())
}

func (s *Store) readCommit(hexHash string) ([]record.Record, error) {
	blobs, err := s.repo.ReadBlobs(plumbing.NewHash(hexHash))
	if err != nil {
		return nil, err
	}
	var out []record.Record
	for _, blob := range blobs {
		out = append(out, record.ParseAll(strings.NewReader(string(blob)), func(line string, err error) {
			if s.log != nil {
				s.log.Warnf("skipping malformed record %q: %v", line, err)
			}
		})...)
	}
	return out, nil
}

// History resolves commit metadata for at most depth commits starting at
// startCommitish via first-parent ancestry, without reading any attached
// records — the cheap half of spec §4.4's walk, used by internal/walk to
// keep attachment reads lazy per commit.
func (s *Store) History(startCommitish string, depth int) ([]CommitRef, error) {
	start, err := s.repo.ResolveCommit(startCommitish)
	if err != nil {
		return nil, err
	}
	commits, err := s.repo.FirstParentAncestry(start, depth)
	if err != nil {
		return nil, err
	}
	refs := make([]CommitRef, len(commits))
	for i, c := range commits {
		refs[i] = CommitRef{
			Hash:   c.Hash.String(),
			Time:   c.Committer.When,
			Title:  firstLine(c.Message),
			Author: c.Author.Name,
		}
	}
	return refs, nil
}

// ReadByHash returns the union of records attached to the commit named by
// its full hex hash.
func (s *Store) ReadByHash(hexHash string) ([]record.Record, error) {
	return s.readCommit(hexHash)
}

// ReadHistory walks at most depth commits starting at startCommitish via
// first-parent ancestry and returns each commit's metadata and attached
// records, per spec §4.4. It is eager (unlike the lazy History Walker
// built on top of it in internal/walk) — callers needing short-circuiting
// should use that package instead.
func (s *Store) ReadHistory(startCommitish string, depth int) ([]CommitRef, [][]record.Record, error) {
	start, err := s.repo.ResolveCommit(startCommitish)
	if err != nil {
		return nil, nil, err
	}
	commits, err := s.repo.FirstParentAncestry(start, depth)
	if err != nil {
		return nil, nil, err
	}

	refs := make([]CommitRef, len(commits))
	recs := make([][]record.Record, len(commits))
	for i, c := range commits {
		refs[i] = CommitRef{
			Hash:   c.Hash.String(),
			Time:   c.Committer.When,
			Title:  firstLine(c.Message),
			Author: c.Author.Name,
		}
		rs, err := s.readCommit(c.Hash.String())
		if err != nil {
			return nil, nil, err
		}
		recs[i] = rs
	}
	return refs, recs, nil
}

// RemoveOlderThan drops canonical-ref attachments at or before cutoff.
func (s *Store) RemoveOlderThan(cutoff time.Time) (int, error) {
	return s.repo.RemoveOlderThan(cutoff.Unix())
}

// Prune drops canonical-ref attachments for commits unreachable from any
// local branch, remote-tracking branch or tag.
func (s *Store) Prune() (int, error) {
	return s.repo.Prune()
}

// Push merges local write shards into the canonical ref and pushes it.
func (s *Store) Push() error { return s.repo.Push() }

// Pull fetches the canonical ref.
func (s *Store) Pull() error { return s.repo.Pull() }

// ListCommitsWithMeasurements enumerates commit hashes carrying at least
// one attachment.
func (s *Store) ListCommitsWithMeasurements() ([]string, error) {
	hashes, err := s.repo.ListCommitsWithMeasurements()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = h.String()
	}
	return out, nil
}

// RootPath returns the working tree root, where the tracked global config
// file (spec §3) lives.
func (s *Store) RootPath() (string, error) {
	return s.repo.RootPath()
}

// CurrentEpoch returns name's current epoch counter out of the tracked
// global config file, the value new records for name should be stamped
// with until the next bump-epoch.
func (s *Store) CurrentEpoch(name string) (uint32, error) {
	root, err := s.repo.RootPath()
	if err != nil {
		return 0, err
	}
	return config.CurrentEpoch(filepath.Join(root, config.GlobalConfigFile), name)
}

// BumpEpoch increments name's epoch counter in the tracked global config
// file and commits the change, producing the new head commit that makes
// the bump visible to subsequent measurements (spec §3).
func (s *Store) BumpEpoch(name string) (uint32, error) {
	root, err := s.repo.RootPath()
	if err != nil {
		return 0, err
	}
	next, err := config.BumpEpoch(filepath.Join(root, config.GlobalConfigFile), name)
	if err != nil {
		return 0, err
	}
	if err := s.repo.CommitFile(config.GlobalConfigFile, "git-perf: bump epoch for "+name); err != nil {
		return 0, err
	}
	return next, nil
}

func firstLine(msg string) string {
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		return msg[:idx]
	}
	return msg
}
