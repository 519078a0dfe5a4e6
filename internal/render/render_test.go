package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaihowl/git-perf/internal/render"
)

func TestRenderDefaultTemplate(t *testing.T) {
	data := render.ReportData{
		Title:      "bench::load",
		ShowEpochs: true,
		Series: []render.Series{
			{Name: "bench::load", Points: []render.Point{
				{CommitHash: "abc123", Time: 1700000000, Value: 10.5, Epoch: 1},
			}},
		},
	}
	var buf strings.Builder
	require.NoError(t, render.Render(&buf, data, ""))
	out := buf.String()
	assert.Contains(t, out, "bench::load")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "epoch: 1")
}

func TestRenderIncludesCustomCSS(t *testing.T) {
	data := render.ReportData{CustomCSS: "custom.css"}
	var buf strings.Builder
	require.NoError(t, render.Render(&buf, data, ""))
	assert.Contains(t, buf.String(), "custom.css")
}
