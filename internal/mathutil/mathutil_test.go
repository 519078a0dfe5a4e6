package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedianOddEven(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
}

func TestMeanMinMax(t *testing.T) {
	xs := []float64{10, 10.1, 9.9, 10.0, 10.0}
	assert.InDelta(t, 10.0, Mean(xs), 1e-9)
	assert.Equal(t, 9.9, Min(xs))
	assert.Equal(t, 10.1, Max(xs))
}

func TestSampleStddevSinglePoint(t *testing.T) {
	assert.Equal(t, 0.0, SampleStddev([]float64{42}))
}

func TestMADOnOutlier(t *testing.T) {
	xs := []float64{10, 10, 10, 10, 100}
	center := Median(xs)
	assert.Equal(t, 10.0, center)
	mad := MAD(xs, center)
	assert.InDelta(t, 0.0, mad, 1e-9)
}
