package flightrecorder

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/gymplan/internal/contexthelpers"
	"github.com/myrjola/gymplan/internal/testhelpers"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := New(testhelpers.NewLogger(testhelpers.NewWriter(t)), Config{
		Directory: filepath.Join(t.TempDir(), "traces"),
		MinAge:    0,
		MaxBytes:  0,
		Cooldown:  time.Minute,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err = r.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { r.Stop(t.Context()) })
	return r
}

func TestRecorder_CaptureTimeout(t *testing.T) {
	r := newTestRecorder(t)
	req := contexthelpers.SetRequestID(httptest.NewRequest("GET", "/", nil), "req-1")

	path, err := r.CaptureTimeout(req.Context())
	if err != nil {
		t.Fatalf("CaptureTimeout() error = %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "timeout-") || !strings.HasSuffix(name, "-req-1.trace") {
		t.Errorf("unexpected trace file name %q", name)
	}
	if _, err = os.Stat(path); err != nil {
		t.Errorf("trace file missing: %v", err)
	}
}

func TestRecorder_CaptureTimeout_cooldown(t *testing.T) {
	r := newTestRecorder(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	first, err := r.CaptureTimeout(t.Context())
	if err != nil || first == "" {
		t.Fatalf("first capture = %q, %v", first, err)
	}

	now = now.Add(30 * time.Second)
	skipped, err := r.CaptureTimeout(t.Context())
	if err != nil || skipped != "" {
		t.Fatalf("capture during cooldown = %q, %v", skipped, err)
	}

	now = now.Add(time.Minute)
	second, err := r.CaptureTimeout(t.Context())
	if err != nil || second == "" || second == first {
		t.Fatalf("capture after cooldown = %q, %v", second, err)
	}
}

func TestNew_requiresDirectory(t *testing.T) {
	if _, err := New(testhelpers.NewLogger(testhelpers.NewWriter(t)), Config{}); err == nil {
		t.Error("expected error for empty directory")
	}
}
