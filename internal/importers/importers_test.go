package importers_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaihowl/git-perf/internal/importers"
)

func fixedNow() float64 { return 1700000000 }

func TestParseJUnitSkipsNoDurationAndDetectsStatus(t *testing.T) {
	xmlDoc := `<testsuites>
  <testsuite>
    <testcase name="alpha" classname="pkg.Alpha" time="0.125"></testcase>
    <testcase name="beta" classname="pkg.Beta" time="0.5"><failure/></testcase>
    <testcase name="no duration" classname="pkg.Gamma"></testcase>
  </testsuite>
</testsuites>`
	recs, err := importers.ParseJUnit(strings.NewReader(xmlDoc), "", nil, fixedNow)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "test::alpha", recs[0].Name)
	assert.Equal(t, 0.125, recs[0].Value)
	status, ok := recs[1].Get("status")
	require.True(t, ok)
	assert.Equal(t, "failure", status)
}

func TestParseJUnitBareTestsuiteRoot(t *testing.T) {
	xmlDoc := `<testsuite><testcase name="solo" time="1.0"></testcase></testsuite>`
	recs, err := importers.ParseJUnit(strings.NewReader(xmlDoc), "ci::", nil, fixedNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ci::test::solo", recs[0].Name)
}

func TestParseCriterionEmitsThreeRecordsNormalizedToNs(t *testing.T) {
	log := `{"reason":"benchmark-started","id":"fib_20"}
{"reason":"benchmark-complete","id":"fib_20","mean":{"point_estimate":1.5,"unit":"us"},"median":{"point_estimate":1.4,"unit":"us"},"slope":{"point_estimate":1.6,"unit":"us"}}
`
	recs, err := importers.ParseCriterion(strings.NewReader(log), "", nil, fixedNow)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	names := map[string]float64{}
	for _, r := range recs {
		names[r.Name] = r.Value
		unit, ok := r.Get("unit")
		require.True(t, ok)
		assert.Equal(t, "ns", unit)
	}
	assert.Equal(t, 1500.0, names["fib_20::mean"])
	assert.Equal(t, 1400.0, names["fib_20::median"])
	assert.Equal(t, 1600.0, names["fib_20::slope"])
}

func TestParseCriterionIgnoresOtherReasons(t *testing.T) {
	log := `{"reason":"benchmark-started","id":"fib_20"}` + "\n"
	recs, err := importers.ParseCriterion(strings.NewReader(log), "", nil, fixedNow)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
