// Package importers implements the two import formats git-perf consumes
// (spec §6): JUnit XML test reports and Criterion JSON benchmark logs.
package importers

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kaihowl/git-perf/internal/record"
)

// junitTestsuites covers both a bare <testsuite> root and a wrapping
// <testsuites> root by letting XML unmarshal either shape into the same
// nested struct. There is deliberately no XMLName field here: tagging it
// to either root name would make encoding/xml reject the other shape at
// decode time ("expected element type <X> but have <Y>").
type junitTestsuites struct {
	Testsuites []junitSuite    `xml:"testsuite"`
	// Present when the document root is itself a single <testsuite>.
	Testcases []junitTestcase `xml:"testcase"`
}

type junitSuite struct {
	Testcases []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Name      string  `xml:"name,attr"`
	Classname string  `xml:"classname,attr"`
	Time      string  `xml:"time,attr"`
	Failure   *struct{} `xml:"failure"`
	Error     *struct{} `xml:"error"`
	Skipped   *struct{} `xml:"skipped"`
}

// ParseJUnit reads a JUnit XML report and emits one record per test case
// that carries a duration, named `test::<name>` with value = time in
// seconds, per spec §6. Tests without a duration are skipped, not
// warned — their absence is expected (e.g. a skipped test with no
// `time` attribute), not malformed input.
func ParseJUnit(r io.Reader, prefix string, metadata []record.KeyValue, now func() float64) ([]record.Record, error) {
	var doc junitTestsuites
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "parsing JUnit XML")
	}

	var cases []junitTestcase
	cases = append(cases, doc.Testcases...)
	for _, suite := range doc.Testsuites {
		cases = append(cases, suite.Testcases...)
	}

	var out []record.Record
	for _, tc := range cases {
		if tc.Time == "" {
			continue
		}
		seconds, err := strconv.ParseFloat(tc.Time, 64)
		if err != nil {
			continue
		}
		kvs := append([]record.KeyValue{}, metadata...)
		kvs = append(kvs, record.KeyValue{Key: "classname", Value: tc.Classname})
		kvs = append(kvs, record.KeyValue{Key: "status", Value: junitStatus(tc)})
		out = append(out, record.Record{
			Name:      prefix + "test::" + sanitizeName(tc.Name),
			Value:     seconds,
			Timestamp: now(),
			KeyValues: kvs,
		})
	}
	return out, nil
}

// sanitizeName collapses whitespace in a free-form test/benchmark name so
// it satisfies the record format's "no whitespace in name" invariant
// (spec §4.2); test names routinely contain spaces ("should return 404").
func sanitizeName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

func junitStatus(tc junitTestcase) string {
	switch {
	case tc.Failure != nil:
		return "failure"
	case tc.Error != nil:
		return "error"
	case tc.Skipped != nil:
		return "skipped"
	default:
		return "pass"
	}
}
