package audit_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaihowl/git-perf/internal/audit"
)

func tailOf(values ...float64) []audit.Point {
	pts := make([]audit.Point, len(values))
	for i, v := range values {
		pts[i] = audit.Point{Value: v, Epoch: 0}
	}
	return pts
}

// Scenario 1: basic audit pass.
func TestScenario1BasicPass(t *testing.T) {
	res, err := audit.Run(10.05, 0, tailOf(10.0, 10.1, 9.9, 10.0, 10.0), audit.Tunables{
		Sigma: 4, MinMeasurements: 1, MinRelativeDeviation: 0, Dispersion: audit.Stddev,
	})
	require.NoError(t, err)
	assert.Equal(t, audit.Pass, res.Verdict)
	assert.Less(t, math.Abs(res.Z), 1.0)
}

// Scenario 2: basic audit fail.
func TestScenario2BasicFail(t *testing.T) {
	res, err := audit.Run(12.0, 0, tailOf(10.0, 10.1, 9.9, 10.0, 10.0), audit.Tunables{
		Sigma: 4, MinMeasurements: 1, MinRelativeDeviation: 0, Dispersion: audit.Stddev,
	})
	require.NoError(t, err)
	assert.Equal(t, audit.Regression, res.Verdict)
	assert.InDelta(t, 28, math.Abs(res.Z), 6)
}

// Scenario 3: relative-deviation floor blocks a trivial diff despite a
// high z-score.
func TestScenario3FloorBlocksTrivialDiff(t *testing.T) {
	res, err := audit.Run(1.0003, 0, tailOf(1.0000, 1.0001, 0.9999, 1.0000), audit.Tunables{
		Sigma: 2, MinMeasurements: 1, MinRelativeDeviation: 1.0, Dispersion: audit.Stddev,
	})
	require.NoError(t, err)
	assert.Equal(t, audit.Pass, res.Verdict)
	assert.InDelta(t, 0.03, res.RelativeDeviationPct, 0.02)
}

// Scenario 4: MAD flags an outlier-dominated series stddev would mask.
func TestScenario4MADvsStddevOnOutlier(t *testing.T) {
	tail := tailOf(10, 10, 10, 10, 100)

	mad, err := audit.Run(11, 0, tail, audit.Tunables{
		Sigma: 3, MinMeasurements: 1, MinRelativeDeviation: 0, Dispersion: audit.MAD,
	})
	require.NoError(t, err)
	assert.Equal(t, audit.Regression, mad.Verdict)

	sd, err := audit.Run(11, 0, tail, audit.Tunables{
		Sigma: 3, MinMeasurements: 1, MinRelativeDeviation: 0, Dispersion: audit.Stddev,
	})
	require.NoError(t, err)
	assert.Equal(t, audit.Pass, sd.Verdict)
}

// Scenario 5: epoch exclusion narrows the tail to same-epoch entries, and
// Inconclusive fires when too few remain.
func TestScenario5EpochExclusion(t *testing.T) {
	tail := []audit.Point{
		{Value: 10, Epoch: 0}, {Value: 10, Epoch: 0}, {Value: 10, Epoch: 0},
		{Value: 20, Epoch: 1}, {Value: 21, Epoch: 1},
	}
	res, err := audit.Run(20.5, 1, tail, audit.Tunables{
		Sigma: 3, MinMeasurements: 2, MinRelativeDeviation: 0, Dispersion: audit.Stddev,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TailSize)
	assert.NotEqual(t, audit.Inconclusive, res.Verdict)

	res2, err := audit.Run(20.5, 1, tail, audit.Tunables{
		Sigma: 3, MinMeasurements: 3, MinRelativeDeviation: 0, Dispersion: audit.Stddev,
	})
	require.NoError(t, err)
	assert.Equal(t, audit.Inconclusive, res2.Verdict)
}

// The MAD constant (1.4826) must be applied exactly once: tail [1,2,3,4,5]
// has median 3, absolute deviations [2,1,0,1,2] with median 1, so dispersion
// should be 1.4826, not 1.4826^2.
func TestMADDispersionAppliesConstantOnce(t *testing.T) {
	res, err := audit.Run(3, 0, tailOf(1, 2, 3, 4, 5), audit.Tunables{
		Sigma: 4, MinMeasurements: 1, MinRelativeDeviation: 0, Dispersion: audit.MAD,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.4826, res.Dispersion, 1e-9)
}

// Property 5: dispersion == 0 boundary cases.
func TestDispersionZeroBoundary(t *testing.T) {
	flatTail := tailOf(10, 10, 10, 10)

	same, err := audit.Run(10, 0, flatTail, audit.Tunables{Sigma: 1, MinMeasurements: 1, Dispersion: audit.Stddev})
	require.NoError(t, err)
	assert.Equal(t, audit.Pass, same.Verdict)

	diff, err := audit.Run(12, 0, flatTail, audit.Tunables{Sigma: 1, MinMeasurements: 1, MinRelativeDeviation: 0, Dispersion: audit.Stddev})
	require.NoError(t, err)
	assert.Equal(t, audit.Regression, diff.Verdict)
	assert.True(t, math.IsInf(diff.Z, 1))
}

// Property 6: audit is invariant under reordering of the tail.
func TestAuditInvariantUnderTailReordering(t *testing.T) {
	t1 := tailOf(10, 10.1, 9.9, 10.0, 10.0)
	t2 := tailOf(10.0, 9.9, 10.1, 10.0, 10.0)

	r1, err := audit.Run(11, 0, t1, audit.Tunables{Sigma: 2, MinMeasurements: 1, Dispersion: audit.MAD})
	require.NoError(t, err)
	r2, err := audit.Run(11, 0, t2, audit.Tunables{Sigma: 2, MinMeasurements: 1, Dispersion: audit.MAD})
	require.NoError(t, err)

	// Sparkline preserves input order for presentation, which legitimately
	// differs here; the statistical outcome must not.
	r1.Sparkline, r2.Sparkline = nil, nil
	assert.Equal(t, r1, r2)
}
