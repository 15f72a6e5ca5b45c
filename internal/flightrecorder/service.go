// Package flightrecorder keeps a rolling runtime trace in memory and writes it to disk when a request times out.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"

	"github.com/myrjola/gymplan/internal/contexthelpers"
	"github.com/myrjola/gymplan/internal/errors"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 * 1024 * 1024
	defaultCooldown = 30 * time.Minute
)

// Recorder writes at most one trace per cooldown period.
type Recorder struct {
	logger    *slog.Logger
	fr        *trace.FlightRecorder
	directory string
	cooldown  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

// Config configures the Recorder. Zero values select the defaults.
type Config struct {
	Directory string
	MinAge    time.Duration
	MaxBytes  uint64
	Cooldown  time.Duration
}

// New creates the traces directory when missing. Call [Recorder.Start] to begin recording.
func New(logger *slog.Logger, cfg Config) (*Recorder, error) {
	if cfg.Directory == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.Directory, 0o700); err != nil { //nolint:mnd // owner only
		return nil, errors.Wrap(err, "create traces directory", slog.String("dir", cfg.Directory))
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = defaultMinAge
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}
	return &Recorder{
		logger:      logger,
		fr:          trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: cfg.MinAge, MaxBytes: cfg.MaxBytes}),
		directory:   cfg.Directory,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
		mu:          sync.Mutex{},
		lastCapture: time.Time{},
	}, nil
}

func (r *Recorder) Start(ctx context.Context) error {
	if err := r.fr.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("dir", r.directory), slog.Duration("cooldown", r.cooldown))
	return nil
}

func (r *Recorder) Stop(ctx context.Context) {
	r.fr.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// CaptureTimeout writes the recorded trace to a file named after the request id in ctx. It returns the file path
// or an empty string when the capture was skipped because of the cooldown.
func (r *Recorder) CaptureTimeout(ctx context.Context) (string, error) {
	now := r.now()
	r.mu.Lock()
	if !r.lastCapture.IsZero() && now.Sub(r.lastCapture) < r.cooldown {
		r.mu.Unlock()
		r.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture during cooldown",
			slog.Time("last_capture", r.lastCapture))
		return "", nil
	}
	r.lastCapture = now
	r.mu.Unlock()

	name := "timeout-" + now.UTC().Format("20060102-150405")
	if requestID := contexthelpers.RequestID(ctx); requestID != "" {
		name += "-" + requestID
	}
	path := filepath.Join(r.directory, name+".trace")

	if err := r.write(path); err != nil {
		return "", errors.Wrap(err, "capture timeout trace", slog.String("file", path))
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured timeout trace", slog.String("file", path))
	return path, nil
}

func (r *Recorder) write(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close trace file: %w", closeErr))
		}
	}()
	if _, err = r.fr.WriteTo(f); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
