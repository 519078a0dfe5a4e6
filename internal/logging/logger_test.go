package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerVerbosityGating(t *testing.T) {
	var iBuf, wBuf, eBuf, dBuf bytes.Buffer
	l := New(0)
	l.D.SetOutput(&dBuf)
	l.I.SetOutput(&iBuf)
	l.W.SetOutput(&wBuf)
	l.E.SetOutput(&eBuf)

	l.Info("hidden at verbosity 0")
	assert.Empty(t, iBuf.String())

	l.Warn("always visible")
	assert.Contains(t, wBuf.String(), "[WARN]")

	l.Error("boom")
	assert.Contains(t, eBuf.String(), "[ERROR]")

	l.Verbosity = 1
	l.Infof("%s-%s", "a", "b")
	assert.Contains(t, iBuf.String(), "a-b")

	l.Debug("still hidden")
	assert.Empty(t, dBuf.String())

	l.Verbosity = 2
	l.Debug("now visible")
	assert.Contains(t, dBuf.String(), "[DEBUG]")
}

func TestCriticalIncludesStacktrace(t *testing.T) {
	var eBuf bytes.Buffer
	l := New(0)
	l.E.SetOutput(&eBuf)
	l.Critical("fatal condition")
	assert.Contains(t, eBuf.String(), "stacktrace:")
}
