package vcs

import (
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
)

// RootPath returns the working tree root, the place the versioned
// configuration blob (spec §3's per-name "epoch" key) lives on disk.
func (r *Repository) RootPath() (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", errors.Wrap(err, "repository has no working tree")
	}
	return wt.Filesystem.Root(), nil
}

// CommitFile stages relPath (relative to the working tree root) and
// commits it with message, producing the new head commit that bumping an
// epoch is defined to require (spec §3).
func (r *Repository) CommitFile(relPath, message string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return errors.Wrap(err, "repository has no working tree")
	}
	if _, err := wt.Add(relPath); err != nil {
		return errors.Wrapf(err, "staging %s", relPath)
	}
	sig := &object.Signature{Name: "git-perf", Email: "git-perf@localhost", When: time.Now()}
	_, err = wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	return errors.Wrap(err, "committing configuration")
}
