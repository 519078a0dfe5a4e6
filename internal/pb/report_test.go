package pb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaihowl/git-perf/internal/pb"
)

func TestReportRoundTrip(t *testing.T) {
	report := &pb.Report{
		Series: []*pb.Series{
			{Name: "bench::load", Points: []*pb.Point{
				{CommitHash: "abc123", Time: 1700000000, Value: 10.5, Epoch: 1},
			}},
		},
	}
	data, err := pb.MarshalReport(report)
	require.NoError(t, err)

	decoded, err := pb.UnmarshalReport(data)
	require.NoError(t, err)
	require.Len(t, decoded.Series, 1)
	assert.Equal(t, "bench::load", decoded.Series[0].Name)
	require.Len(t, decoded.Series[0].Points, 1)
	assert.Equal(t, "abc123", decoded.Series[0].Points[0].CommitHash)
	assert.Equal(t, 10.5, decoded.Series[0].Points[0].Value)
}

func TestAuditResultRoundTrip(t *testing.T) {
	a := &pb.AuditResult{
		Verdict: "Regression", HeadValue: 12, Center: 10, Dispersion: 0.07, Z: 28,
		RelativeDeviationPct: 20, DispersionMethod: "mad", TailSize: 5,
		TailMedian: 10, TailMin: 9, TailMax: 11, Sparkline: []float64{9, 10, 11, 10, 10},
	}
	data, err := pb.MarshalAuditResult(a)
	require.NoError(t, err)

	decoded, err := pb.UnmarshalAuditResult(data)
	require.NoError(t, err)
	assert.Equal(t, "Regression", decoded.Verdict)
	assert.Equal(t, 12.0, decoded.HeadValue)
	assert.Equal(t, "mad", decoded.DispersionMethod)
	assert.Equal(t, int32(5), decoded.TailSize)
	assert.Equal(t, []float64{9, 10, 11, 10, 10}, decoded.Sparkline)
}
