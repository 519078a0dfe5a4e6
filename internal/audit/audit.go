// Package audit implements the Audit Engine (spec §4.6): given a head
// value and a tail of historical scalars, decide Pass / Regression /
// Inconclusive.
package audit

import (
	"math"

	"github.com/pkg/errors"

	"github.com/kaihowl/git-perf/internal/mathutil"
)

// ErrMissingHead is returned when the head commit carries no measurement
// for the audited name.
var ErrMissingHead = errors.New("head commit has no measurement for this name")

// DispersionMethod selects how tail center/dispersion are computed.
type DispersionMethod string

const (
	Stddev DispersionMethod = "stddev"
	MAD    DispersionMethod = "mad"
)

// Verdict is the audit's final classification.
type Verdict string

const (
	Pass        Verdict = "Pass"
	Regression  Verdict = "Regression"
	Inconclusive Verdict = "Inconclusive"
)

// Point is one tail entry: a reduced scalar value plus the epoch its
// underlying record carried, so the engine can drop stale-epoch entries.
type Point struct {
	Value float64
	Epoch uint32
}

// Tunables are the resolved (post config-merge) knobs driving the audit,
// per spec §4.6 and the config resolver (internal/config).
type Tunables struct {
	Sigma               float64
	MinMeasurements      int
	MinRelativeDeviation float64 // percent, e.g. 1.0 for 1%
	Dispersion           DispersionMethod
}

// Result is the full audit output: the verdict plus every intermediate
// quantity a report or CLI might want to show (spec §4.6's Output bullet).
type Result struct {
	Verdict              Verdict
	HeadValue            float64
	Center               float64
	Dispersion           float64
	DispersionMethod     DispersionMethod
	Z                     float64
	RelativeDeviationPct float64
	TailSize             int
	TailMedian           float64
	TailMin              float64
	TailMax              float64
	// Sparkline is the tail, oldest-to-newest, for presentation.
	Sparkline []float64
}

// Run executes spec §4.6's procedure. head is the head commit's scalar and
// headEpoch its epoch; tail is the ancestor scalars (any order — the
// result is invariant under reordering, per spec §8 property 6).
func Run(head float64, headEpoch uint32, tail []Point, t Tunables) (Result, error) {
	filtered := make([]float64, 0, len(tail))
	for _, p := range tail {
		if p.Epoch == headEpoch {
			filtered = append(filtered, p.Value)
		}
	}

	if len(filtered) < t.MinMeasurements {
		result := Result{Verdict: Inconclusive, HeadValue: head, TailSize: len(filtered)}
		if len(filtered) > 0 {
			result.TailMedian = mathutil.Median(filtered)
			result.TailMin = mathutil.Min(filtered)
			result.TailMax = mathutil.Max(filtered)
			result.Sparkline = sparkline(filtered)
		}
		return result, nil
	}

	var center, dispersion float64
	switch t.Dispersion {
	case MAD:
		center = mathutil.Median(filtered)
		dispersion = mathutil.MAD(filtered, center)
	default:
		center = mathutil.Mean(filtered)
		dispersion = mathutil.SampleStddev(filtered)
	}

	z := zScore(head, center, dispersion)

	tailMedian := mathutil.Median(filtered)
	relDev := relativeDeviationPct(head, tailMedian)

	verdict := Pass
	if math.Abs(z) >= t.Sigma && relDev >= t.MinRelativeDeviation {
		verdict = Regression
	}

	dispersionMethod := t.Dispersion
	if dispersionMethod == "" {
		dispersionMethod = Stddev
	}

	return Result{
		Verdict:              verdict,
		HeadValue:            head,
		Center:               center,
		Dispersion:           dispersion,
		DispersionMethod:     dispersionMethod,
		Z:                    z,
		RelativeDeviationPct: relDev,
		TailSize:             len(filtered),
		TailMedian:           tailMedian,
		TailMin:              mathutil.Min(filtered),
		TailMax:              mathutil.Max(filtered),
		Sparkline:            sparkline(filtered),
	}, nil
}

// sparkline reverses tail into oldest-to-newest order for presentation.
// Callers collect the tail walking the history back from head, so it
// arrives newest-first; the spec's sparkline reads left-to-right as time
// advances.
func sparkline(filtered []float64) []float64 {
	out := make([]float64, len(filtered))
	for i, v := range filtered {
		out[len(filtered)-1-i] = v
	}
	return out
}

// zScore computes (head-center)/dispersion, with the dispersion==0 special
// case from spec §4.6 step 6: zero if head equals center, else signed
// infinity.
func zScore(head, center, dispersion float64) float64 {
	if dispersion == 0 {
		if head == center {
			return 0
		}
		if head > center {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return (head - center) / dispersion
}

// relativeDeviationPct is always computed against the tail median,
// independent of the configured dispersion method — it is the number a
// human reads, per spec §4.6 step 7.
func relativeDeviationPct(head, tailMedian float64) float64 {
	if tailMedian == 0 {
		if head == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(head/tailMedian-1) * 100
}
