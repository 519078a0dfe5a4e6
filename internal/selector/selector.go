// Package selector implements the Selector & Aggregator (spec §4.5):
// regex/metadata filtering of records within a commit, grouping by
// (name, epoch, separator_values), and reduction of each group to a
// scalar.
package selector

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/kaihowl/git-perf/internal/mathutil"
	"github.com/kaihowl/git-perf/internal/record"
)

// Reducer names the scalar-reduction function applied to each group.
type Reducer string

const (
	Min    Reducer = "min"
	Max    Reducer = "max"
	Median Reducer = "median"
	Mean   Reducer = "mean"
	None   Reducer = "none" // report path only: groups are not collapsed
)

// Selector narrows the records a group considers. Filters is disjunctive
// (union): a record matches if it matches any compiled regex against its
// Name. Metadata is conjunctive with Filters: every key=value pair must be
// present on the record.
type Selector struct {
	Filters     []*regexp.Regexp
	Metadata    map[string]string
	SeparateBy  []string
	Reducer     Reducer
}

// New compiles filterPatterns and builds a Selector. An empty
// filterPatterns list matches every record (no regex constraint).
func New(filterPatterns []string, metadata map[string]string, separateBy []string, reducer Reducer) (*Selector, error) {
	sel := &Selector{Metadata: metadata, SeparateBy: separateBy, Reducer: reducer}
	for _, p := range filterPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling filter %q", p)
		}
		sel.Filters = append(sel.Filters, re)
	}
	return sel, nil
}

// Matches reports whether r satisfies the selector.
func (s *Selector) Matches(r record.Record) bool {
	if len(s.Filters) > 0 {
		matched := false
		for _, re := range s.Filters {
			if re.MatchString(r.Name) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for k, v := range s.Metadata {
		got, ok := r.Get(k)
		if !ok || got != v {
			return false
		}
	}
	return true
}

// groupKey identifies a (name, epoch, separator_values) bucket.
type groupKey struct {
	name      string
	epoch     uint32
	separator string
}

// Group is one (name, epoch, separator_values) bucket with its raw
// matching records in encounter order.
type Group struct {
	Name      string
	Epoch     uint32
	Separator []string
	Records   []record.Record
}

// Value is a group reduced to a single scalar (or left raw, if the
// selector's reducer is None).
type Value struct {
	Group Group
	Scalar float64 // valid only when Reducer != None
}

// Apply filters records, partitions the matches by (name, epoch,
// separator_values), and reduces each group per the selector's Reducer.
// Groups are returned sorted by (name, epoch, separator) for deterministic
// output ordering downstream.
func (s *Selector) Apply(records []record.Record) ([]Value, error) {
	groups := map[groupKey]*Group{}
	var order []groupKey
	for _, r := range records {
		if !s.Matches(r) {
			continue
		}
		sep := make([]string, len(s.SeparateBy))
		for i, key := range s.SeparateBy {
			v, _ := r.Get(key)
			sep[i] = v
		}
		key := groupKey{name: r.Name, epoch: r.Epoch, separator: strings.Join(sep, "\x1f")}
		g, ok := groups[key]
		if !ok {
			g = &Group{Name: r.Name, Epoch: r.Epoch, Separator: sep}
			groups[key] = g
			order = append(order, key)
		}
		g.Records = append(g.Records, r)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.name != b.name {
			return a.name < b.name
		}
		if a.epoch != b.epoch {
			return a.epoch < b.epoch
		}
		return a.separator < b.separator
	})

	values := make([]Value, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if s.Reducer == None {
			values = append(values, Value{Group: *g})
			continue
		}
		scalar, err := reduce(s.Reducer, g.Records)
		if err != nil {
			return nil, err
		}
		values = append(values, Value{Group: *g, Scalar: scalar})
	}
	return values, nil
}

func reduce(r Reducer, records []record.Record) (float64, error) {
	xs := make([]float64, len(records))
	for i, rec := range records {
		xs[i] = rec.Value
	}
	switch r {
	case Min:
		return mathutil.Min(xs), nil
	case Max:
		return mathutil.Max(xs), nil
	case Median:
		return mathutil.Median(xs), nil
	case Mean:
		return mathutil.Mean(xs), nil
	default:
		return 0, errors.Errorf("unknown reducer %q", r)
	}
}
