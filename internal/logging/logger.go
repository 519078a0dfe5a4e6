// Package logging provides the leveled logger used throughout git-perf.
package logging

import (
	"log"
	"os"
	"runtime/debug"
	"strings"
)

// Logger is the output interface used by every git-perf component. It never
// writes to stdout: command output (YAML/protobuf/report bytes) owns stdout,
// so all logging goes to stderr.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})
	Info(...interface{})
	Infof(string, ...interface{})
	Warn(...interface{})
	Warnf(string, ...interface{})
	Error(...interface{})
	Errorf(string, ...interface{})
	Critical(...interface{})
	Criticalf(string, ...interface{})
}

// DefaultLogger wraps the standard log package with verbosity gating:
// Verbosity 0 logs warnings and errors only, 1 ("-v") also logs info, 2
// ("-vv") also logs debug-level traces of merge/retry internals.
type DefaultLogger struct {
	Verbosity int

	D *log.Logger
	I *log.Logger
	W *log.Logger
	E *log.Logger
}

// New returns a DefaultLogger at the given verbosity, writing to stderr.
func New(verbosity int) *DefaultLogger {
	return &DefaultLogger{
		Verbosity: verbosity,
		D:         log.New(os.Stderr, "[DEBUG] ", log.LstdFlags),
		I:         log.New(os.Stderr, "[INFO] ", log.LstdFlags),
		W:         log.New(os.Stderr, "[WARN] ", log.LstdFlags),
		E:         log.New(os.Stderr, "[ERROR] ", log.LstdFlags),
	}
}

// Debug writes to the debug logger if verbosity >= 2.
func (d *DefaultLogger) Debug(v ...interface{}) {
	if d.Verbosity >= 2 {
		d.D.Println(v...)
	}
}

// Debugf writes to the debug logger with printf-style formatting if verbosity >= 2.
func (d *DefaultLogger) Debugf(f string, v ...interface{}) {
	if d.Verbosity >= 2 {
		d.D.Printf(f, v...)
	}
}

// Info writes to the info logger if verbosity >= 1.
func (d *DefaultLogger) Info(v ...interface{}) {
	if d.Verbosity >= 1 {
		d.I.Println(v...)
	}
}

// Infof writes to the info logger with printf-style formatting if verbosity >= 1.
func (d *DefaultLogger) Infof(f string, v ...interface{}) {
	if d.Verbosity >= 1 {
		d.I.Printf(f, v...)
	}
}

// Warn writes to the warning logger. Used for MalformedRecord skips.
func (d *DefaultLogger) Warn(v ...interface{}) { d.W.Println(v...) }

// Warnf writes to the warning logger with printf-style formatting.
func (d *DefaultLogger) Warnf(f string, v ...interface{}) { d.W.Printf(f, v...) }

// Error writes to the error logger.
func (d *DefaultLogger) Error(v ...interface{}) { d.E.Println(v...) }

// Errorf writes to the error logger with printf-style formatting.
func (d *DefaultLogger) Errorf(f string, v ...interface{}) { d.E.Printf(f, v...) }

// Critical writes to the error logger and appends a stacktrace.
func (d *DefaultLogger) Critical(v ...interface{}) {
	d.E.Println(v...)
	d.logStacktrace()
}

// Criticalf writes to the error logger with printf-style formatting and appends a stacktrace.
func (d *DefaultLogger) Criticalf(f string, v ...interface{}) {
	d.E.Printf(f, v...)
	d.logStacktrace()
}

func (d *DefaultLogger) logStacktrace() {
	d.E.Println("stacktrace:\n" + strings.Join(captureStacktrace(3), "\n"))
}

func captureStacktrace(skip int) []string {
	lines := strings.Split(string(debug.Stack()), "\n")
	toSkip := 2*skip + 1
	if toSkip > len(lines) {
		return lines
	}
	return lines[toSkip:]
}
