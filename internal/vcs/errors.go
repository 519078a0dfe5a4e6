package vcs

import "github.com/pkg/errors"

// Sentinel error kinds from spec §7. Adapter and Store methods wrap these
// with errors.Wrap so the CLI shell can map them to exit codes with
// errors.Cause/errors.Is while still carrying a message and, at -vv, a
// stack trace.
var (
	// ErrInvalidCommit is returned when a committish does not resolve or
	// is ambiguous.
	ErrInvalidCommit = errors.New("invalid commit")
	// ErrCommitNotFound means the same as ErrInvalidCommit. No adapter or
	// Store operation returns it; the CLI still maps it to exit code 1.
	ErrCommitNotFound = errors.New("commit not found")
	// ErrShallowRepo is raised by Prune, which requires full reachability
	// information.
	ErrShallowRepo = errors.New("refusing to operate on a shallow clone")
	// ErrNoRemote is raised by Push/Pull when the repository has no
	// configured remote.
	ErrNoRemote = errors.New("no remote configured")
	// ErrPushConflict is raised when Push exhausts its retry budget
	// against a moving canonical ref.
	ErrPushConflict = errors.New("push conflict: retries exhausted")
)
