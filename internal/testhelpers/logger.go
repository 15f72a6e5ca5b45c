package testhelpers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/gymplan/internal/logging"
)

// NewLogger creates a debug level logger with the given log sink such as testhelpers.NewWriter.
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.NewTextLogger(logSink, slog.LevelDebug)
}

// NewTestLogger is a shorthand for NewLogger(NewWriter(t)).
func NewTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return NewLogger(NewWriter(t))
}
