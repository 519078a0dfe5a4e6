package vcs

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
)

// Prune drops canonical-ref attachments for commits no longer reachable
// from any local branch, remote-tracking branch or tag (spec §4.1's Prune
// operation). It refuses
// to run on a shallow clone, where reachability cannot be determined
// reliably and would otherwise silently discard attachments for commits
// that are merely outside the fetch depth rather than truly unreachable.
func (r *Repository) Prune() (removed int, err error) {
	shallow, err := r.IsShallow()
	if err != nil {
		return 0, err
	}
	if shallow {
		return 0, ErrShallowRepo
	}

	reachable, err := r.ReachableFromRefs()
	if err != nil {
		return 0, err
	}

	entries, err := r.readTreeAt(CanonicalRef)
	if err != nil {
		return 0, err
	}

	kept := notesTree{}
	for name, hash := range entries {
		if reachable[plumbing.NewHash(name)] {
			kept[name] = hash
			continue
		}
		removed++
	}
	if removed == 0 {
		return 0, nil
	}
	if err := r.writeTreeCommit(CanonicalRef, kept, "git-perf: prune unreachable measurements"); err != nil {
		return 0, errors.Wrap(err, "writing pruned tree")
	}
	return removed, nil
}

// RemoveOlderThan drops canonical-ref attachments for commits whose commit
// timestamp is at or before cutoffUnix (spec §4.1: the boundary is
// inclusive — a commit made exactly at the cutoff is removed).
func (r *Repository) RemoveOlderThan(cutoffUnix int64) (removed int, err error) {
	entries, err := r.readTreeAt(CanonicalRef)
	if err != nil {
		return 0, err
	}

	kept := notesTree{}
	for name, hash := range entries {
		commit, err := r.repo.CommitObject(plumbing.NewHash(name))
		if err != nil {
			// The attachment targets a commit this repository no longer
			// has (e.g. after a history rewrite); treat it like an
			// unreachable entry rather than failing the whole operation.
			removed++
			continue
		}
		if CommitTime(commit) <= cutoffUnix {
			removed++
			continue
		}
		kept[name] = hash
	}
	if removed == 0 {
		return 0, nil
	}
	if err := r.writeTreeCommit(CanonicalRef, kept, "git-perf: remove measurements older than cutoff"); err != nil {
		return 0, errors.Wrap(err, "writing filtered tree")
	}
	return removed, nil
}
