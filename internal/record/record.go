// Package record implements the line-oriented measurement serialization
// format described in spec §4.2: one record per line, whitespace-separated
// tokens, designed so that byte-wise concatenation of two valid blobs is
// itself a valid blob whose parsed record multiset is the union of the
// inputs. This is the property the concurrent-writer merge protocol in
// internal/vcs relies on.
package record

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedRecord is returned (wrapped with the offending line) when a
// line cannot be parsed as a record. Per spec §7, callers of Parse are
// expected to warn and skip rather than abort on this error.
var ErrMalformedRecord = errors.New("malformed record")

// KeyValue is a single metadata pair.
type KeyValue struct {
	Key   string
	Value string
}

// Record is a single measurement datum, always bound to exactly one commit
// by the caller (the commit itself is not part of the serialized line; it
// is implied by which attachment blob the line lives in).
type Record struct {
	Name      string
	Value     float64
	Timestamp float64
	Epoch     uint32
	KeyValues []KeyValue
}

// Get returns the value of the named metadata key and whether it was present.
func (r Record) Get(key string) (string, bool) {
	for _, kv := range r.KeyValues {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Validate checks the record invariants from spec §3: name is a
// whitespace-free printable token, value is finite, timestamp is positive,
// and no metadata key/value contains whitespace or '='.
func (r Record) Validate() error {
	if r.Name == "" || containsWhitespace(r.Name) {
		return errors.Wrapf(ErrMalformedRecord, "invalid name %q", r.Name)
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return errors.Wrapf(ErrMalformedRecord, "non-finite value for %q", r.Name)
	}
	if r.Timestamp <= 0 {
		return errors.Wrapf(ErrMalformedRecord, "non-positive timestamp for %q", r.Name)
	}
	seen := map[string]bool{}
	for _, kv := range r.KeyValues {
		if kv.Key == "" || containsWhitespace(kv.Key) || strings.Contains(kv.Key, "=") {
			return errors.Wrapf(ErrMalformedRecord, "invalid metadata key %q", kv.Key)
		}
		if containsWhitespace(kv.Value) || strings.Contains(kv.Value, "=") {
			return errors.Wrapf(ErrMalformedRecord, "invalid metadata value %q=%q", kv.Key, kv.Value)
		}
		if seen[kv.Key] {
			return errors.Wrapf(ErrMalformedRecord, "duplicate metadata key %q", kv.Key)
		}
		seen[kv.Key] = true
	}
	return nil
}

func containsWhitespace(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) >= 0
}

// Encode renders a single record as its line form, without a trailing
// newline. WriteAll appends the newline between records.
func (r Record) Encode() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteByte(' ')
	b.WriteString(formatFloat(r.Value))
	b.WriteByte(' ')
	b.WriteString(formatFloat(r.Timestamp))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(uint64(r.Epoch), 10))
	for _, kv := range r.KeyValues {
		b.WriteByte(' ')
		b.WriteString(kv.Key)
		b.WriteByte('=')
		b.WriteString(kv.Value)
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteAll encodes every record as one line each, terminated by '\n'. This
// is the function write-shard appends go through: it never reads what is
// already in the blob, only appends new lines, so two concurrent appenders
// to the same write shard can never corrupt each other's content as long
// as the underlying storage append is itself atomic (guaranteed by the VCS
// adapter committing one blob per append).
func WriteAll(w io.Writer, records []Record) error {
	for _, r := range records {
		if _, err := io.WriteString(w, r.Encode()); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// VersionMarker, when present as the first token of a line, is skipped
// (the format tolerates a configurable leading version marker per §4.2).
const VersionMarker = "#v1"

// ParseAll parses every line of r, skipping blank lines, a leading version
// marker, and lines that fail to parse — malformed lines are reported
// through onWarn (may be nil to discard the warning) and do not abort the
// remaining parse, exactly as spec §7 requires ("parse errors on individual
// records within a blob are warned and skipped").
func ParseAll(r io.Reader, onWarn func(line string, err error)) []Record {
	var out []Record
	scanner := bufio.NewScanner(r)
	// Imported test/criterion blobs or long key_value lists can exceed the
	// default 64KiB scanner buffer; grow it generously.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			if onWarn != nil {
				onWarn(line, err)
			}
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ParseLine parses one line into a Record. A line with fewer than four
// tokens, a non-finite value, or a metadata token lacking '=' fails with
// ErrMalformedRecord.
func ParseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) > 0 && fields[0] == VersionMarker {
		fields = fields[1:]
	}
	if len(fields) < 4 {
		return Record{}, errors.Wrapf(ErrMalformedRecord, "line has %d tokens, need at least 4: %q", len(fields), line)
	}
	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return Record{}, errors.Wrapf(ErrMalformedRecord, "non-finite value %q", fields[1])
	}
	timestamp, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Record{}, errors.Wrapf(ErrMalformedRecord, "bad timestamp %q", fields[2])
	}
	epoch, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return Record{}, errors.Wrapf(ErrMalformedRecord, "bad epoch %q", fields[3])
	}
	var kvs []KeyValue
	for _, tok := range fields[4:] {
		idx := strings.IndexByte(tok, '=')
		if idx < 0 {
			return Record{}, errors.Wrapf(ErrMalformedRecord, "metadata token missing '=': %q", tok)
		}
		kvs = append(kvs, KeyValue{Key: tok[:idx], Value: tok[idx+1:]})
	}
	return Record{
		Name:      fields[0],
		Value:     value,
		Timestamp: timestamp,
		Epoch:     uint32(epoch),
		KeyValues: kvs,
	}, nil
}

// Equal reports whether two records carry the same field-wise content,
// treating KeyValues as an unordered set (per spec §3, "keys unique within
// a record"; order is not semantically meaningful).
func Equal(a, b Record) bool {
	if a.Name != b.Name || a.Value != b.Value || a.Timestamp != b.Timestamp || a.Epoch != b.Epoch {
		return false
	}
	if len(a.KeyValues) != len(b.KeyValues) {
		return false
	}
	am := make(map[string]string, len(a.KeyValues))
	for _, kv := range a.KeyValues {
		am[kv.Key] = kv.Value
	}
	for _, kv := range b.KeyValues {
		if v, ok := am[kv.Key]; !ok || v != kv.Value {
			return false
		}
	}
	return true
}

// sortKey produces a deterministic string for deduplication/union purposes
// in tests; it is never used as record identity by the store itself.
func sortKey(r Record) string {
	kvs := make([]string, len(r.KeyValues))
	for i, kv := range r.KeyValues {
		kvs[i] = kv.Key + "=" + kv.Value
	}
	sort.Strings(kvs)
	return fmt.Sprintf("%s|%v|%v|%d|%s", r.Name, r.Value, r.Timestamp, r.Epoch, strings.Join(kvs, ","))
}

// Union returns the multiset union of two record slices, used by tests
// asserting the merge-commutativity invariant (spec §8 property 2). It is
// not used by production code: the VCS adapter's merge is a byte-level
// concatenation, never a logical union computed in memory.
func Union(a, b []Record) []Record {
	counts := map[string]int{}
	index := map[string]Record{}
	add := func(rs []Record) {
		for _, r := range rs {
			k := sortKey(r)
			counts[k]++
			index[k] = r
		}
	}
	add(a)
	add(b)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []Record
	for _, k := range keys {
		for i := 0; i < counts[k]; i++ {
			out = append(out, index[k])
		}
	}
	return out
}
