package vcs

import (
	"encoding/hex"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"
	"github.com/minio/highwayhash"
	"github.com/pkg/errors"
)

// fingerprintKey is a fixed, non-secret 32-byte key: highwayhash is used
// here purely as a fast content fingerprint for debug logging, not for
// authentication, so a well-known key is fine.
var fingerprintKey = [32]byte{}

func fingerprint(data []byte) string {
	sum := highwayhash.Sum(data, fingerprintKey[:])
	return hex.EncodeToString(sum[:8])
}

// shardID is generated once per process and identifies this process's
// write-shard ref, per spec §4.1 ("the adapter maintains, per repository, a
// write shard identified by process instance"). Two concurrent invocations
// of git-perf always get distinct shard refs and therefore never race on
// the same reference.
var shardID = uuid.NewString()

// ShardRef returns this process's write-shard reference name.
func (r *Repository) ShardRef() plumbing.ReferenceName {
	return plumbing.ReferenceName(ShardRefPrefix + shardID)
}

// AllShardRefs lists every local write-shard ref, including ones left
// behind by prior processes that appended but never pushed.
func (r *Repository) AllShardRefs() ([]plumbing.ReferenceName, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, errors.Wrap(err, "listing references")
	}
	defer refs.Close()
	var shardRefs []plumbing.ReferenceName
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if len(name) > len(ShardRefPrefix) && name[:len(ShardRefPrefix)] == ShardRefPrefix {
			shardRefs = append(shardRefs, ref.Name())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(shardRefs, func(i, j int) bool { return shardRefs[i] < shardRefs[j] })
	return shardRefs, nil
}

// AppendBlob appends rawData as a new blob attached to commit in this
// process's write shard. It never reads the commit's existing records —
// append is a pure write, matching §4.3 ("append never reads existing
// records"). If the shard already carries a blob for this commit (a
// second append to the same commit within one process), the new data is
// concatenated onto the existing blob rather than replacing it, preserving
// every prior record.
func (r *Repository) AppendBlob(commit plumbing.Hash, rawData []byte) error {
	ref := r.ShardRef()
	entries, err := r.readTreeAt(ref)
	if err != nil {
		return err
	}
	name := commit.String()
	var merged []byte
	if existing, ok := entries[name]; ok {
		prev, err := r.readBlob(existing)
		if err != nil {
			return err
		}
		merged = append(append([]byte{}, prev...), rawData...)
	} else {
		merged = rawData
	}
	blobHash, err := r.writeBlob(merged)
	if err != nil {
		return errors.Wrap(err, "writing attachment blob")
	}
	entries[name] = blobHash
	if r.log != nil {
		r.log.Debugf("appended attachment for %s to shard %s (fingerprint %s)", name, ref, fingerprint(rawData))
	}
	return r.writeTreeCommit(ref, entries, "git-perf: append "+name)
}

// ReadBlobs returns the raw content of every blob attached to commit
// across all reachable write shards plus the canonical ref, one slice
// entry per ref that carries one: write shards in sorted ref order, then
// the canonical ref. Per §4.3, callers must not rely on record ordering
// within the result — only on the fact that the entries concatenate into a
// valid blob whose records are the union of every writer's contribution.
func (r *Repository) ReadBlobs(commit plumbing.Hash) ([][]byte, error) {
	refs, err := r.AllShardRefs()
	if err != nil {
		return nil, err
	}
	refs = append(refs, CanonicalRef)

	var blobs [][]byte
	name := commit.String()
	for _, ref := range refs {
		entries, err := r.readTreeAt(ref)
		if err != nil {
			return nil, err
		}
		hash, ok := entries[name]
		if !ok {
			continue
		}
		data, err := r.readBlob(hash)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, data)
	}
	return blobs, nil
}

// ListCommitsWithMeasurements enumerates every commit hash carrying at
// least one attachment across the canonical ref and all local write
// shards.
func (r *Repository) ListCommitsWithMeasurements() ([]plumbing.Hash, error) {
	refs, err := r.AllShardRefs()
	if err != nil {
		return nil, err
	}
	refs = append(refs, CanonicalRef)

	seen := map[plumbing.Hash]bool{}
	var out []plumbing.Hash
	for _, ref := range refs {
		entries, err := r.readTreeAt(ref)
		if err != nil {
			return nil, err
		}
		for name := range entries {
			h := plumbing.NewHash(name)
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
