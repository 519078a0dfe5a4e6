package importers

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/kaihowl/git-perf/internal/record"
)

// criterionMessage is one line of Criterion's line-delimited JSON log.
// Only "benchmark-complete" messages (the final summary per benchmark)
// contribute measurements; every other reason (e.g. "benchmark-started")
// is ignored.
type criterionMessage struct {
	Reason        string  `json:"reason"`
	ID            string  `json:"id"`
	Mean          *stats  `json:"mean"`
	Median        *stats  `json:"median"`
	Slope         *stats  `json:"slope"`
}

type stats struct {
	PointEstimate   float64 `json:"point_estimate"`
	Unit            string  `json:"unit"`
}

// nsPerUnit converts Criterion's reported unit into nanoseconds, per
// spec §6's "value normalized to nanoseconds."
var nsPerUnit = map[string]float64{
	"ns": 1,
	"us": 1e3,
	"ms": 1e6,
	"s":  1e9,
}

// ParseCriterion reads a line-delimited JSON Criterion log and emits three
// records per "benchmark-complete" message (::mean, ::median, ::slope),
// each value normalized to nanoseconds with unit=ns recorded in metadata,
// per spec §6.
func ParseCriterion(r io.Reader, prefix string, metadata []record.KeyValue, now func() float64) ([]record.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []record.Record
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var msg criterionMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, errors.Wrap(err, "parsing criterion JSON line")
		}
		if msg.Reason != "benchmark-complete" {
			continue
		}
		out = append(out, criterionRecords(msg, prefix, metadata, now())...)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading criterion log")
	}
	return out, nil
}

func criterionRecords(msg criterionMessage, prefix string, metadata []record.KeyValue, timestamp float64) []record.Record {
	var out []record.Record
	add := func(suffix string, s *stats) {
		if s == nil {
			return
		}
		factor, ok := nsPerUnit[s.Unit]
		if !ok {
			factor = 1
		}
		kvs := append([]record.KeyValue{}, metadata...)
		kvs = append(kvs, record.KeyValue{Key: "unit", Value: "ns"})
		out = append(out, record.Record{
			Name:      prefix + sanitizeName(msg.ID) + suffix,
			Value:     s.PointEstimate * factor,
			Timestamp: timestamp,
			KeyValues: kvs,
		})
	}
	add("::mean", msg.Mean)
	add("::median", msg.Median)
	add("::slope", msg.Slope)
	return out
}
