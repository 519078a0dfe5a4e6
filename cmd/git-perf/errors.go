package main

import (
	"github.com/pkg/errors"

	"github.com/kaihowl/git-perf/internal/audit"
	"github.com/kaihowl/git-perf/internal/vcs"
)

// exitCodeFor maps a command error to the exit codes from spec §6:
// 0 on success (including Inconclusive audit), 1 on Regression or any
// recoverable error, 2 on usage error.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	cause := errors.Cause(err)
	switch {
	case errors.Is(cause, errUsage):
		return 2
	case errors.Is(cause, errRegression):
		return 1
	case errors.Is(cause, vcs.ErrInvalidCommit),
		errors.Is(cause, vcs.ErrCommitNotFound),
		errors.Is(cause, vcs.ErrShallowRepo),
		errors.Is(cause, vcs.ErrNoRemote),
		errors.Is(cause, vcs.ErrPushConflict),
		errors.Is(cause, audit.ErrMissingHead):
		return 1
	default:
		return 1
	}
}

// errUsage and errRegression are local sentinels RunE implementations wrap
// to signal which exit code main should use; they carry no information of
// their own beyond identity.
var (
	errUsage      = errors.New("usage error")
	errRegression = errors.New("regression detected")
)
