// Package walk implements the History Walker (spec §4.4): a lazy
// (commit, commit_metadata, filtered_records) sequence over first-parent
// ancestry, built directly on internal/store.
package walk

import (
	"time"

	"github.com/pkg/errors"

	"github.com/kaihowl/git-perf/internal/record"
	"github.com/kaihowl/git-perf/internal/store"
)

// Commit carries the metadata a downstream renderer or audit report wants
// for tooltips, alongside the name-matching records for this commit.
type Commit struct {
	Hash    string
	Time    time.Time
	Title   string
	Author  string
	Records []record.Record
}

// Filter narrows which records from a commit are yielded, before the
// Selector & Aggregator (internal/selector) reduces them to a scalar. A nil
// Filter yields every record.
type Filter func(record.Record) bool

// Visitor is called once per visited commit. Returning false stops the
// walk without visiting any further commit.
type Visitor func(Commit) (bool, error)

// Walk lazily visits at most depth commits starting at startCommitish via
// first-parent ancestry, invoking visit for each. Commit headers for the
// whole window are resolved up front (cheap: no attachment reads), but
// records are only read, filtered and handed to visit one commit at a
// time — the walk stops the moment visit returns false or an error,
// without reading attachments for commits it never visits, satisfying
// spec §4.4's "consumers that stop early must not trigger reads for
// commits they did not consume."
func Walk(s *store.Store, startCommitish string, depth int, filter Filter, visit Visitor) error {
	headers, err := s.History(startCommitish, depth)
	if err != nil {
		return err
	}
	for _, h := range headers {
		records, err := s.ReadByHash(h.Hash)
		if err != nil {
			return errors.Wrapf(err, "reading records for %s", h.Hash)
		}
		if filter != nil {
			var filtered []record.Record
			for _, rec := range records {
				if filter(rec) {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}
		cont, err := visit(Commit{Hash: h.Hash, Time: h.Time, Title: h.Title, Author: h.Author, Records: records})
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// Collect runs Walk and returns every visited commit, for callers (audit,
// report) that need the whole window at once rather than a short-circuiting
// consumer.
func Collect(s *store.Store, startCommitish string, depth int, filter Filter) ([]Commit, error) {
	var out []Commit
	err := Walk(s, startCommitish, depth, filter, func(c Commit) (bool, error) {
		out = append(out, c)
		return true, nil
	})
	return out, err
}
