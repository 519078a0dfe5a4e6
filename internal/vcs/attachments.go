package vcs

import (
	"bytes"
	"io"
	"sort"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
)

// CanonicalRef is the single remote-shared reference holding the
// authoritative attachment state, analogous to git notes' default
// refs/notes/commits but under a namespace private to git-perf.
const CanonicalRef plumbing.ReferenceName = "refs/git-perf/measurements"

// ShardRefPrefix namespaces the per-process write-shard refs that
// accumulate local appends pending a push (spec §3 "write-pending state").
const ShardRefPrefix = "refs/git-perf/shards/"

// notesTree is a flat mapping from target-commit hex to the blob holding
// that commit's serialized records. A flat namespace (no fan-out
// directories) is simpler and is plenty for the commit counts git-perf
// deals with; git notes' 2-hex-char fan-out exists to keep single tree
// reads cheap on repositories with millions of notes, which is not this
// tool's regime.
type notesTree = map[string]plumbing.Hash // commit hex -> blob hash

// readTreeAt loads the notesTree recorded in the tree of the commit that
// ref currently points to. A ref that does not exist yields an empty map.
func (r *Repository) readTreeAt(ref plumbing.ReferenceName) (notesTree, error) {
	out := notesTree{}
	reference, err := r.repo.Reference(ref, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "resolving ref %s", ref)
	}
	commit, err := r.repo.CommitObject(reference.Hash())
	if err != nil {
		return nil, errors.Wrapf(err, "reading commit for ref %s", ref)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, errors.Wrapf(err, "reading tree for ref %s", ref)
	}
	for _, entry := range tree.Entries {
		out[entry.Name] = entry.Hash
	}
	return out, nil
}

// writeTreeCommit writes a new tree from entries and a new commit pointing
// at it (parented on the ref's previous commit, if any), and fast-forwards
// ref to the new commit. It is the single mutation primitive every
// attachment-writing operation (append, merge-on-push, prune,
// remove-older-than) goes through, keeping every mutation a single atomic
// VCS commit as required by §5's shared-resource policy.
func (r *Repository) writeTreeCommit(ref plumbing.ReferenceName, entries notesTree, message string) error {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	tree := &object.Tree{}
	for _, name := range names {
		tree.Entries = append(tree.Entries, object.TreeEntry{
			Name: name,
			Mode: filemode.Regular,
			Hash: entries[name],
		})
	}
	treeObj := r.repo.Storer.NewEncodedObject()
	treeObj.SetType(plumbing.TreeObject)
	if err := tree.Encode(treeObj); err != nil {
		return errors.Wrap(err, "encoding notes tree")
	}
	treeHash, err := r.repo.Storer.SetEncodedObject(treeObj)
	if err != nil {
		return errors.Wrap(err, "storing notes tree")
	}

	var parents []plumbing.Hash
	prev, err := r.repo.Reference(ref, true)
	if err == nil {
		parents = []plumbing.Hash{prev.Hash()}
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return errors.Wrapf(err, "resolving ref %s", ref)
	}

	now := time.Now()
	sig := object.Signature{Name: "git-perf", Email: "git-perf@localhost", When: now}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}
	commitObj := r.repo.Storer.NewEncodedObject()
	commitObj.SetType(plumbing.CommitObject)
	if err := commit.Encode(commitObj); err != nil {
		return errors.Wrap(err, "encoding notes commit")
	}
	commitHash, err := r.repo.Storer.SetEncodedObject(commitObj)
	if err != nil {
		return errors.Wrap(err, "storing notes commit")
	}

	newRef := plumbing.NewHashReference(ref, commitHash)
	if err := r.repo.Storer.SetReference(newRef); err != nil {
		return errors.Wrapf(err, "updating ref %s", ref)
	}
	return nil
}

// writeBlob stores data as a new blob object and returns its hash.
func (r *Repository) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return r.repo.Storer.SetEncodedObject(obj)
}

// readBlob returns the content of a blob object.
func (r *Repository) readBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := r.repo.BlobObject(hash)
	if err != nil {
		return nil, err
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
