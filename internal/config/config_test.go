package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaihowl/git-perf/internal/audit"
	"github.com/kaihowl/git-perf/internal/config"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".git-perf.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Measurement.Sigma)
	assert.Empty(t, cfg.PerMeasurementName)
}

func TestLoadFileParsesGlobalAndNamedTables(t *testing.T) {
	path := writeFile(t, `
[measurement]
sigma = 3.5
dispersion = "mad"

[measurement."bench::load"]
min_measurements = 10
`)
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Measurement.Sigma)
	assert.Equal(t, 3.5, *cfg.Measurement.Sigma)
	require.NotNil(t, cfg.Measurement.Dispersion)
	assert.Equal(t, audit.MAD, *cfg.Measurement.Dispersion)

	named, ok := cfg.PerMeasurementName["bench::load"]
	require.True(t, ok)
	require.NotNil(t, named.MinMeasurements)
	assert.Equal(t, 10, *named.MinMeasurements)
}

func TestResolvePrecedence(t *testing.T) {
	sigmaCLI := 2.0
	cli := config.Tunables{Sigma: &sigmaCLI}

	sigmaNamed := 3.0
	global := config.PartialConfig{
		PerMeasurementName: map[string]config.Tunables{
			"bench::load": {Sigma: &sigmaNamed},
		},
	}

	resolved, err := config.Resolve("bench::load", cli, global, config.PartialConfig{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, resolved.Sigma, "CLI override must win over per-measurement config")
	assert.Equal(t, audit.Stddev, resolved.Dispersion, "falls back to built-in default")
}

func TestResolveBuiltinDefaults(t *testing.T) {
	resolved, err := config.Resolve("bench::load", config.Tunables{}, config.PartialConfig{}, config.PartialConfig{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, resolved.Sigma)
	assert.Equal(t, 2, resolved.MinMeasurements)
	assert.Equal(t, 0.0, resolved.MinRelativeDeviation)
	assert.Equal(t, audit.Stddev, resolved.Dispersion)
}

func TestEpochDefaultsToZeroAndBumps(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".git-perf.toml")

	epoch, err := config.CurrentEpoch(path, "bench::load")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), epoch)

	bumped, err := config.BumpEpoch(path, "bench::load")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), bumped)

	epoch, err = config.CurrentEpoch(path, "bench::load")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), epoch)

	bumped, err = config.BumpEpoch(path, "bench::load")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), bumped)

	other, err := config.CurrentEpoch(path, "other::series")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), other, "epoch is tracked per measurement name")
}
