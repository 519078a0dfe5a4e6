package changepoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaihowl/git-perf/internal/changepoint"
)

func TestShortSeriesYieldsNoChangepoints(t *testing.T) {
	values := []float64{1, 1, 1, 1, 5, 5, 5, 5, 5}
	assert.Len(t, values, changepoint.MinSeriesLength-1)
	cps := changepoint.Detect(values, 1)
	assert.Empty(t, cps)
}

func TestConstantSeriesHasNoChangepoints(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 5
	}
	cps := changepoint.Detect(values, 1)
	assert.Empty(t, cps)
}

// Scenario 7: a clean step yields exactly one change point at the step
// index, with magnitude approximately 4.
func TestScenario7CleanStep(t *testing.T) {
	values := make([]float64, 0, 40)
	for i := 0; i < 20; i++ {
		values = append(values, 1)
	}
	for i := 0; i < 20; i++ {
		values = append(values, 5)
	}
	cps := changepoint.Detect(values, 1)
	if assert.Len(t, cps, 1) {
		assert.Equal(t, 20, cps[0])
	}

	points := make([]changepoint.Point, len(values))
	for i, v := range values {
		points[i] = changepoint.Point{CommitHash: string(rune('a' + i%26)), Value: v}
	}
	segments := changepoint.Enrich(points, cps)
	if assert.Len(t, segments, 1) {
		assert.InDelta(t, 4.0, segments[0].Magnitude, 0.01)
		assert.Equal(t, changepoint.Up, segments[0].Direction)
	}
}
