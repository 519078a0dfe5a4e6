package config

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// CurrentEpoch reads the per-name epoch counter out of the global config
// file at path (spec §3's "versioned configuration blob tracked by the
// VCS"). A missing file, missing [measurement.NAME] table, or missing
// epoch key all mean "epoch 0" — nothing has bumped this series yet.
func CurrentEpoch(path, name string) (uint32, error) {
	raw, err := loadRawTable(path)
	if err != nil {
		return 0, err
	}
	section := namedSection(raw, name)
	if section == nil {
		return 0, nil
	}
	v, ok := section["epoch"]
	if !ok {
		return 0, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, errors.Wrapf(err, "config %s: measurement %q epoch", path, name)
	}
	return uint32(n), nil
}

// BumpEpoch increments the per-name epoch counter in the global config
// file at path by one and rewrites the file, returning the new value.
// Bumping is a commit-producing operation (spec §3) — the caller is
// responsible for staging and committing path afterwards via
// vcs.Repository.CommitFile.
func BumpEpoch(path, name string) (uint32, error) {
	raw, err := loadRawTable(path)
	if err != nil {
		return 0, err
	}

	measurement, _ := raw["measurement"].(map[string]interface{})
	if measurement == nil {
		measurement = map[string]interface{}{}
	}
	section, _ := measurement[name].(map[string]interface{})
	if section == nil {
		section = map[string]interface{}{}
	}

	var current int64
	if v, ok := section["epoch"]; ok {
		current, err = toInt64(v)
		if err != nil {
			return 0, errors.Wrapf(err, "config %s: measurement %q epoch", path, name)
		}
	}
	next := current + 1
	section["epoch"] = next
	measurement[name] = section
	raw["measurement"] = measurement

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return 0, errors.Wrapf(err, "encoding config %s", path)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, errors.Wrapf(err, "writing config %s", path)
	}
	return uint32(next), nil
}

func loadRawTable(path string) (map[string]interface{}, error) {
	raw := map[string]interface{}{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return raw, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return raw, nil
}

func namedSection(raw map[string]interface{}, name string) map[string]interface{} {
	measurement, _ := raw["measurement"].(map[string]interface{})
	if measurement == nil {
		return nil
	}
	section, _ := measurement[name].(map[string]interface{})
	return section
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, errors.Errorf("epoch value %v is not an integer", v)
	}
}
