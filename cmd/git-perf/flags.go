package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/kaihowl/git-perf/internal/audit"
)

// dispersionValue is a pflag.Value that only accepts the dispersion
// methods the audit engine actually knows, rejecting anything else at
// flag-parse time instead of surfacing it later as a config error.
type dispersionValue struct {
	set bool
	v   audit.DispersionMethod
}

var _ pflag.Value = (*dispersionValue)(nil)

func (d *dispersionValue) String() string {
	if !d.set {
		return ""
	}
	return string(d.v)
}

func (d *dispersionValue) Set(s string) error {
	switch audit.DispersionMethod(s) {
	case audit.Stddev, audit.MAD:
		d.v = audit.DispersionMethod(s)
		d.set = true
		return nil
	default:
		return errors.Errorf("must be %q or %q", audit.Stddev, audit.MAD)
	}
}

func (d *dispersionValue) Type() string { return "dispersion" }
