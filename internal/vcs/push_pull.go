package vcs

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
)

const defaultRemote = "origin"
const maxPushRetries = 5

// hasRemote reports whether the repository has a configured remote named
// defaultRemote.
func (r *Repository) hasRemote() (bool, error) {
	_, err := r.repo.Remote(defaultRemote)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// fetchCanonical fetches only CanonicalRef from the remote, mapping it to
// the same name locally, and returns the remote's current commit hash for
// CanonicalRef (plumbing.ZeroHash if the remote has never pushed it).
func (r *Repository) fetchCanonical() (plumbing.Hash, error) {
	refspec := config.RefSpec(CanonicalRef + ":" + CanonicalRef)
	err := r.repo.Fetch(&git.FetchOptions{
		RemoteName: defaultRemote,
		RefSpecs:   []config.RefSpec{refspec},
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return plumbing.ZeroHash, err
	}
	ref, err := r.repo.Reference(CanonicalRef, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// mergedTree reads the canonical ref plus every local write-shard ref and
// returns their entry-wise union, concatenating blob content for any commit
// that more than one source carries attachments for. This is the read side
// of the "byte concatenation is union" invariant: merging at the tree level
// never needs to parse a single record.
func (r *Repository) mergedTree() (notesTree, error) {
	canonical, err := r.readTreeAt(CanonicalRef)
	if err != nil {
		return nil, err
	}
	shardRefs, err := r.AllShardRefs()
	if err != nil {
		return nil, err
	}

	merged := notesTree{}
	for name, hash := range canonical {
		merged[name] = hash
	}
	for _, shardRef := range shardRefs {
		shard, err := r.readTreeAt(shardRef)
		if err != nil {
			return nil, err
		}
		for name, hash := range shard {
			existing, ok := merged[name]
			if !ok {
				merged[name] = hash
				continue
			}
			if existing == hash {
				continue
			}
			combined, err := r.concatBlobs(existing, hash)
			if err != nil {
				return nil, err
			}
			merged[name] = combined
		}
	}
	return merged, nil
}

func (r *Repository) concatBlobs(a, b plumbing.Hash) (plumbing.Hash, error) {
	da, err := r.readBlob(a)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	db, err := r.readBlob(b)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return r.writeBlob(append(append([]byte{}, da...), db...))
}

// Push merges every local write shard into the canonical ref and pushes it,
// per spec §4.9's write-and-push state machine: fetch, merge, attempt
// fast-forward push, and on rejection (the remote moved under us) retry the
// whole fetch-merge-push cycle up to maxPushRetries times before giving up
// with ErrPushConflict. Local write shards are left intact until a push
// succeeds, so a failed push never loses local appends; after a successful
// push the shard refs that were merged into it are deleted.
func (r *Repository) Push() error {
	ok, err := r.hasRemote()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoRemote
	}

	for attempt := 0; attempt < maxPushRetries; attempt++ {
		if _, err := r.fetchCanonical(); err != nil {
			return errors.Wrap(err, "fetching canonical ref")
		}
		shardRefs, err := r.AllShardRefs()
		if err != nil {
			return err
		}
		merged, err := r.mergedTree()
		if err != nil {
			return err
		}
		if err := r.writeTreeCommit(CanonicalRef, merged, "git-perf: merge measurements"); err != nil {
			return err
		}

		refspec := config.RefSpec(CanonicalRef + ":" + CanonicalRef)
		err = r.repo.Push(&git.PushOptions{
			RemoteName: defaultRemote,
			RefSpecs:   []config.RefSpec{refspec},
		})
		if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
			for _, ref := range shardRefs {
				if err := r.repo.Storer.RemoveReference(ref); err != nil {
					return errors.Wrapf(err, "removing merged write shard %s", ref)
				}
			}
			if r.log != nil {
				r.log.Debugf("pushed canonical measurements ref after %d attempt(s)", attempt+1)
			}
			return nil
		}
		if !isNonFastForward(err) {
			return errors.Wrap(err, "pushing canonical ref")
		}
		if r.log != nil {
			r.log.Infof("canonical ref moved during push, retrying (attempt %d/%d)", attempt+1, maxPushRetries)
		}
	}
	return ErrPushConflict
}

func isNonFastForward(err error) bool {
	return errors.Is(err, git.ErrNonFastForwardUpdate)
}

// Pull fetches the canonical ref from the remote without touching any
// local write shard.
func (r *Repository) Pull() error {
	ok, err := r.hasRemote()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoRemote
	}
	_, err = r.fetchCanonical()
	if err != nil {
		return errors.Wrap(err, "pulling canonical ref")
	}
	return nil
}
