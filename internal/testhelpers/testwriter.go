package testhelpers

import (
	"io"
	"strings"
	"sync"
	"testing"
)

// Writer forwards log output to t.Log so that logs are shown only for failing tests.
type Writer struct {
	t    *testing.T
	mu   sync.Mutex
	done bool
}

// NewWriter creates a Writer bound to t. Writes after the test has finished are dropped because t.Log panics
// when called after completion.
func NewWriter(t *testing.T) io.Writer {
	t.Helper()
	w := &Writer{t: t, mu: sync.Mutex{}, done: false}
	t.Cleanup(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.done = true
	})
	return w
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return len(p), nil
	}
	if output := strings.TrimSuffix(string(p), "\n"); output != "" {
		w.t.Log(output)
	}
	return len(p), nil
}
