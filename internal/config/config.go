// Package config implements the Config Resolver (spec §4.8): a pure,
// upfront-materialized merge of CLI overrides, per-measurement TOML
// tables, the global TOML table, and built-in defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/imdario/mergo"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	"github.com/kaihowl/git-perf/internal/audit"
)

// GlobalConfigFile is the tracked, repository-local config file name.
const GlobalConfigFile = ".git-perf.toml"

// UserConfigFile is the untracked, user-level fallback.
const UserConfigFile = "~/.git-perf.toml"

// Tunables mirrors audit.Tunables but with every field a pointer, so a
// PartialConfig layer can represent "unset" distinctly from "set to the
// zero value" — required for mergo's "fill only unset fields" semantics.
type Tunables struct {
	Sigma                *float64               `toml:"sigma"`
	MinMeasurements      *int                   `toml:"min_measurements"`
	MinRelativeDeviation *float64               `toml:"min_relative_deviation"`
	Dispersion           *audit.DispersionMethod `toml:"dispersion"`
}

// PartialConfig is one layer of the on-disk/CLI configuration: a global
// table plus a per-measurement-name table, both optional.
type PartialConfig struct {
	Measurement        Tunables            `toml:"measurement"`
	PerMeasurementName map[string]Tunables `toml:"-"`
}

// fileConfig is the raw TOML shape, matching spec §3/§4.8's key path:
// `[measurement].KEY` at top level and `[measurement."N"].KEY` per name.
// The "measurement" table mixes flat tunable keys with named subtables, so
// every entry is captured as a toml.Primitive first and classified by key
// name during a second decode pass — BurntSushi/toml's documented idiom
// for tables whose shape isn't known up front.
type fileConfig struct {
	Measurement map[string]toml.Primitive `toml:"measurement"`
}

// knownTunableKeys names the flat keys that belong to the top-level
// [measurement] table itself, rather than to a named subtable.
var knownTunableKeys = map[string]bool{
	"sigma": true, "min_measurements": true, "min_relative_deviation": true, "dispersion": true,
}

// defaults are git-perf's built-in, lowest-priority tunables.
func defaults() Tunables {
	sigma := 4.0
	minMeasurements := 2
	minRelDev := 0.0
	dispersion := audit.Stddev
	return Tunables{
		Sigma:                &sigma,
		MinMeasurements:      &minMeasurements,
		MinRelativeDeviation: &minRelDev,
		Dispersion:           &dispersion,
	}
}

// LoadFile parses a TOML config file at path. A missing file yields an
// empty PartialConfig (no error) since both the global and user config
// files are optional.
func LoadFile(path string) (PartialConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return PartialConfig{}, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return PartialConfig{}, errors.Wrapf(err, "parsing config %s", path)
	}

	var global Tunables
	named := map[string]Tunables{}
	for key, prim := range raw.Measurement {
		if knownTunableKeys[key] {
			if err := decodeOne(meta, prim, key, &global); err != nil {
				return PartialConfig{}, errors.Wrapf(err, "parsing config %s: key %q", path, key)
			}
			continue
		}
		var t Tunables
		if err := meta.PrimitiveDecode(prim, &t); err != nil {
			return PartialConfig{}, errors.Wrapf(err, "parsing config %s: measurement %q", path, key)
		}
		named[key] = t
	}

	return PartialConfig{Measurement: global, PerMeasurementName: named}, nil
}

// decodeOne decodes a single flat scalar value from the [measurement]
// table directly into the matching field of dst. The primitive here holds
// just the scalar (e.g. the right-hand side of `sigma = 4.0`), not a
// table, so it decodes straight into a pointer of the field's own type.
func decodeOne(meta toml.MetaData, prim toml.Primitive, key string, dst *Tunables) error {
	switch key {
	case "sigma":
		var v float64
		if err := meta.PrimitiveDecode(prim, &v); err != nil {
			return err
		}
		dst.Sigma = &v
	case "min_measurements":
		var v int
		if err := meta.PrimitiveDecode(prim, &v); err != nil {
			return err
		}
		dst.MinMeasurements = &v
	case "min_relative_deviation":
		var v float64
		if err := meta.PrimitiveDecode(prim, &v); err != nil {
			return err
		}
		dst.MinRelativeDeviation = &v
	case "dispersion":
		var v audit.DispersionMethod
		if err := meta.PrimitiveDecode(prim, &v); err != nil {
			return err
		}
		dst.Dispersion = &v
	}
	return nil
}

// DefaultPaths resolves the global (repo-local) and user-level config file
// paths, expanding ~ via go-homedir.
func DefaultPaths(repoRoot string) (global, user string, err error) {
	global = filepath.Join(repoRoot, GlobalConfigFile)
	user, err = homedir.Expand(UserConfigFile)
	if err != nil {
		return "", "", errors.Wrap(err, "expanding user config path")
	}
	return global, user, nil
}

// Resolve walks CLI overrides → per-measurement-name table → global table
// → built-in default, per spec §4.8, and returns fully materialized
// audit.Tunables. Each layer is merged with mergo.Merge, which fills only
// fields left nil by a higher-priority layer — earlier arguments win.
func Resolve(name string, cliOverride Tunables, global, user PartialConfig) (audit.Tunables, error) {
	merged := cliOverride

	if named, ok := global.PerMeasurementName[name]; ok {
		if err := mergo.Merge(&merged, named); err != nil {
			return audit.Tunables{}, errors.Wrap(err, "merging per-measurement config")
		}
	}
	if named, ok := user.PerMeasurementName[name]; ok {
		if err := mergo.Merge(&merged, named); err != nil {
			return audit.Tunables{}, errors.Wrap(err, "merging per-measurement config")
		}
	}
	if err := mergo.Merge(&merged, global.Measurement); err != nil {
		return audit.Tunables{}, errors.Wrap(err, "merging global config")
	}
	if err := mergo.Merge(&merged, user.Measurement); err != nil {
		return audit.Tunables{}, errors.Wrap(err, "merging user config")
	}
	if err := mergo.Merge(&merged, defaults()); err != nil {
		return audit.Tunables{}, errors.Wrap(err, "merging built-in defaults")
	}

	return audit.Tunables{
		Sigma:                deref(merged.Sigma, 4),
		MinMeasurements:      derefInt(merged.MinMeasurements, 2),
		MinRelativeDeviation: deref(merged.MinRelativeDeviation, 0),
		Dispersion:           derefDispersion(merged.Dispersion, audit.Stddev),
	}, nil
}

func deref(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func derefInt(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func derefDispersion(p *audit.DispersionMethod, fallback audit.DispersionMethod) audit.DispersionMethod {
	if p == nil {
		return fallback
	}
	return *p
}
