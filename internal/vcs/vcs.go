// Package vcs is the VCS adapter (spec §4.1): it resolves committishes,
// walks first-parent ancestry, and owns the attachment namespace — reading,
// appending, merging, fetching and pushing per-commit measurement blobs on
// top of the host repository's native object graph and refs, the same way
// the teacher's codebase builds every analysis on top of go-git rather than
// shelling out to the git binary.
package vcs

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/pkg/errors"

	"github.com/kaihowl/git-perf/internal/logging"
)

// Repository wraps a go-git repository with the attachment-namespace
// operations git-perf needs. It holds no long-lived cache: every call goes
// straight to the underlying object store, which go-git itself caches.
type Repository struct {
	repo *git.Repository
	log  logging.Logger
}

// Open opens the repository at path (a working tree or a bare repository).
func Open(path string, log logging.Logger) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening repository at %s", path)
	}
	return &Repository{repo: repo, log: log}, nil
}

// Raw exposes the underlying go-git repository for adapter-internal helpers
// that live in sibling files of this package.
func (r *Repository) Raw() *git.Repository { return r.repo }

// ResolveCommit resolves a committish — a full hash, an unambiguous short
// prefix, HEAD/HEAD~k/HEAD^, a branch, or a tag — to a commit object. It
// fails with ErrInvalidCommit if the committish is ambiguous or unknown,
// per spec §4.1.
func (r *Repository) ResolveCommit(committish string) (*object.Commit, error) {
	if committish == "" {
		committish = "HEAD"
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(committish))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidCommit, "%q: %v", committish, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidCommit, "%q resolved to non-commit object %s: %v", committish, hash, err)
	}
	return commit, nil
}

// FirstParentAncestry returns up to depth commits starting at start and
// following only the first parent at each step — spec §4.4's mandatory
// traversal rule, which gives merge commits the semantics of "the mainline
// at this point" instead of git log's default topological order.
func (r *Repository) FirstParentAncestry(start *object.Commit, depth int) ([]*object.Commit, error) {
	result := make([]*object.Commit, 0, depth)
	commit := start
	for i := 0; i < depth; i++ {
		result = append(result, commit)
		if commit.NumParents() == 0 {
			break
		}
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, errors.Wrapf(err, "walking first-parent ancestry from %s", start.Hash)
		}
		commit = parent
	}
	return result, nil
}

// IsShallow reports whether the repository is a shallow clone, in which
// case ancestor reachability (needed by Prune) cannot be determined.
func (r *Repository) IsShallow() (bool, error) {
	ss, ok := r.repo.Storer.(storer.ShallowStorer)
	if !ok {
		return false, nil
	}
	hashes, err := ss.Shallow()
	if err != nil {
		return false, errors.Wrap(err, "reading shallow info")
	}
	return len(hashes) > 0, nil
}

// ReachableFromRefs returns the set of commit hashes reachable from every
// local branch, remote-tracking branch and tag. Used by Prune to decide
// which attachments are orphaned.
func (r *Repository) ReachableFromRefs() (map[plumbing.Hash]bool, error) {
	reachable := map[plumbing.Hash]bool{}
	refs, err := r.repo.References()
	if err != nil {
		return nil, errors.Wrap(err, "listing references")
	}
	defer refs.Close()

	var tips []plumbing.Hash
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, "refs/heads/") && !strings.HasPrefix(name, "refs/tags/") && !strings.HasPrefix(name, "refs/remotes/") {
			return nil
		}
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		tips = append(tips, ref.Hash())
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, tip := range tips {
		// Peel annotated tags (including tags of tags) down to the object
		// they ultimately point at, since object.GetCommit only loads an
		// object that is itself a commit.
		target := tip
		for {
			tag, err := object.GetTag(r.repo.Storer, target)
			if err != nil {
				break
			}
			target = tag.Target
		}
		commit, err := object.GetCommit(r.repo.Storer, target)
		if err != nil {
			// tag or non-commit object with no commit at the end of its
			// chain; skip silently, matching git's own lenient treatment of
			// annotated tags pointing at blobs/trees.
			continue
		}
		iter := object.NewCommitPreorderIter(commit, reachable, nil)
		err = iter.ForEach(func(c *object.Commit) error {
			reachable[c.Hash] = true
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "walking commit ancestry")
		}
	}
	return reachable, nil
}

// CommitTime returns the commit (not author) timestamp, used by
// RemoveOlderThan's inclusive boundary check.
func CommitTime(c *object.Commit) int64 {
	return c.Committer.When.Unix()
}
