// Package changepoint implements the Change-Point Detector (spec §4.7):
// PELT (Pruned Exact Linear Time) segmentation with an L2 cost function.
package changepoint

import (
	"math"

	"github.com/emirpasic/gods/sets/treeset"
	godsutils "github.com/emirpasic/gods/utils"

	"github.com/kaihowl/git-perf/internal/mathutil"
)

// Direction classifies a detected shift relative to the series' earlier
// segment.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Point is one sample in the series fed to Detect: a scalar value plus
// enough commit context to enrich the resulting segments.
type Point struct {
	CommitHash     string
	EpochBoundary  bool
	Value          float64
}

// Segment is one detected change point: the index (into the input slice)
// where a new segment starts, and the means on either side.
type Segment struct {
	Index        int
	CommitHash   string
	PreMean      float64
	PostMean     float64
	Magnitude    float64
	Direction    Direction
	EpochBoundary bool
}

// prefixSums supports O(1) L2 segment cost queries via the identity
// Σ(x_i - mean)^2 = Σx_i^2 - (Σx_i)^2/n.
type prefixSums struct {
	sum   []float64 // sum[i] = Σ x[0:i]
	sumSq []float64 // sumSq[i] = Σ x[0:i]^2
}

func newPrefixSums(xs []float64) prefixSums {
	sum := make([]float64, len(xs)+1)
	sumSq := make([]float64, len(xs)+1)
	for i, x := range xs {
		sum[i+1] = sum[i] + x
		sumSq[i+1] = sumSq[i] + x*x
	}
	return prefixSums{sum: sum, sumSq: sumSq}
}

// cost returns the L2 cost of the half-open segment [s, t).
func (p prefixSums) cost(s, t int) float64 {
	n := float64(t - s)
	if n <= 0 {
		return 0
	}
	segSum := p.sum[t] - p.sum[s]
	segSumSq := p.sumSq[t] - p.sumSq[s]
	return segSumSq - segSum*segSum/n
}

// DefaultPenalty computes the implementation-default β (spec §3's
// `change_point.penalty`) from the series itself: the standard BIC-style
// choice of sample variance scaled by 2*ln(n), so the penalty adapts to
// the series' own noise level instead of a fixed constant that would be
// too strict for noisy data and too loose for quiet data.
func DefaultPenalty(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	variance := mathutil.SampleStddev(values)
	variance *= variance
	return 2 * variance * math.Log(float64(n))
}

// MinSeriesLength is the minimum series length PELT runs against (spec
// §4.7: "if the series has fewer than a configured threshold (default
// 10), return empty"). Below this, there isn't enough data to distinguish
// a real shift from noise.
const MinSeriesLength = 10

// Detect runs PELT over values using penalty beta (spec §4.7's β) and
// returns the index of every changepoint, in ascending order; Enrich
// computes the before/after means for those indices. A constant series
// yields no changepoints (spec §8 property 7).
// A series shorter than MinSeriesLength yields no changepoints either.
func Detect(values []float64, beta float64) []int {
	n := len(values)
	if n < MinSeriesLength {
		return nil
	}
	ps := newPrefixSums(values)

	f := make([]float64, n+1)
	lastChange := make([]int, n+1)
	f[0] = -beta

	candidates := treeset.NewWith(godsutils.IntComparator)
	candidates.Add(0)

	for t := 1; t <= n; t++ {
		best := float64(0)
		bestSet := false
		bestSrc := 0
		for _, raw := range candidates.Values() {
			s := raw.(int)
			val := f[s] + ps.cost(s, t) + beta
			if !bestSet || val < best {
				best = val
				bestSrc = s
				bestSet = true
			}
		}
		f[t] = best
		lastChange[t] = bestSrc

		// Prune: drop any candidate that can never be optimal for a later t.
		pruneCandidates := candidates.Values()
		for _, raw := range pruneCandidates {
			s := raw.(int)
			if s == t {
				continue
			}
			if f[s]+ps.cost(s, t) > f[t] {
				candidates.Remove(s)
			}
		}
		candidates.Add(t)
	}

	var changepoints []int
	idx := n
	for idx > 0 {
		prev := lastChange[idx]
		if prev > 0 {
			changepoints = append([]int{prev}, changepoints...)
		}
		idx = prev
	}
	return changepoints
}

// Enrich turns raw changepoint indices into Segments, computing pre/post
// means, magnitude, direction and whether the changepoint coincides with a
// declared epoch boundary (spec §4.7 / §9's "epoch vs change point"
// cross-reference).
func Enrich(points []Point, indices []int) []Segment {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	segments := make([]Segment, 0, len(indices))
	bounds := append([]int{0}, indices...)
	bounds = append(bounds, len(points))

	for i, idx := range indices {
		preStart, preEnd := bounds[i], idx
		postStart, postEnd := idx, bounds[i+2]
		preMean := mathutil.Mean(values[preStart:preEnd])
		postMean := mathutil.Mean(values[postStart:postEnd])
		dir := Up
		if postMean < preMean {
			dir = Down
		}
		segments = append(segments, Segment{
			Index:         idx,
			CommitHash:    points[idx].CommitHash,
			PreMean:       preMean,
			PostMean:      postMean,
			Magnitude:     math.Abs(postMean - preMean),
			Direction:     dir,
			EpochBoundary: points[idx].EpochBoundary,
		})
	}
	return segments
}
