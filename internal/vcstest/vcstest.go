// Package vcstest builds throwaway git repositories for tests across the
// module: a local repository with a handful of commits and, where needed, a
// bare "remote" repository wired up via go-git's local file transport so
// Push/Pull can be exercised without a network or a live git binary.
package vcstest

import (
	"os"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/kaihowl/git-perf/internal/logging"
	"github.com/kaihowl/git-perf/internal/vcs"
)

// Repo bundles a git-perf adapter around a real temporary repository, plus
// the raw go-git handle for assertions tests want to make directly.
type Repo struct {
	Dir  string
	Raw  *git.Repository
	Perf *vcs.Repository
}

// New creates an empty repository in a fresh temp dir.
func New(t *testing.T) *Repo {
	t.Helper()
	dir, err := os.MkdirTemp("", "git-perf-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	raw, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	perf, err := vcs.Open(dir, logging.New(0))
	require.NoError(t, err)

	return &Repo{Dir: dir, Raw: raw, Perf: perf}
}

// Commit appends message as a line to file.txt in the working tree, commits
// it (parented on HEAD if one exists), and returns the commit. The file
// content only keeps each commit distinct; git-perf attachments key off
// commit hashes alone.
func (r *Repo) Commit(t *testing.T, message string) *object.Commit {
	t.Helper()
	wt, err := r.Raw.Worktree()
	require.NoError(t, err)

	path := r.Dir + "/file.txt"
	existing, _ := os.ReadFile(path)
	require.NoError(t, os.WriteFile(path, append(existing, []byte(message+"\n")...), 0o644))
	_, err = wt.Add("file.txt")
	require.NoError(t, err)

	sig := &object.Signature{Name: "tester", Email: "tester@localhost", When: time.Now()}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)

	commit, err := r.Raw.CommitObject(hash)
	require.NoError(t, err)
	return commit
}

// ResetBranchTo force-moves the current branch ref to hash, simulating a
// history rewrite that leaves previously-tipped commits unreachable.
func (r *Repo) ResetBranchTo(t *testing.T, hash plumbing.Hash) {
	t.Helper()
	head, err := r.Raw.Head()
	require.NoError(t, err)
	ref := plumbing.NewHashReference(head.Name(), hash)
	require.NoError(t, r.Raw.Storer.SetReference(ref))
}

// AnnotatedTag creates an annotated tag object (distinct from a commit)
// pointing at hash, so tests can exercise reachability through a tag
// object rather than a direct branch ref.
func (r *Repo) AnnotatedTag(t *testing.T, name string, hash plumbing.Hash) {
	t.Helper()
	sig := &object.Signature{Name: "tester", Email: "tester@localhost", When: time.Now()}
	_, err := r.Raw.CreateTag(name, hash, &git.CreateTagOptions{Tagger: sig, Message: name})
	require.NoError(t, err)
}

// AddBareRemote creates a bare repository in a second temp dir, registers
// it as r's "origin" remote, and returns its path.
func (r *Repo) AddBareRemote(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "git-perf-remote-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	_, err = git.PlainInit(dir, true)
	require.NoError(t, err)

	_, err = r.Raw.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{dir},
	})
	require.NoError(t, err)
	return dir
}

// CloneFrom creates a new working repository by cloning remoteDir, wiring
// it up as a second git-perf participant against the same canonical ref.
func CloneFrom(t *testing.T, remoteDir string) *Repo {
	t.Helper()
	dir, err := os.MkdirTemp("", "git-perf-clone-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	raw, err := git.PlainClone(dir, false, &git.CloneOptions{URL: remoteDir})
	require.NoError(t, err)

	perf, err := vcs.Open(dir, logging.New(0))
	require.NoError(t, err)

	return &Repo{Dir: dir, Raw: raw, Perf: perf}
}
