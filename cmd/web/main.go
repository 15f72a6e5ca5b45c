package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/myrjola/gymplan/internal/catalog"
	"github.com/myrjola/gymplan/internal/envstruct"
	"github.com/myrjola/gymplan/internal/errors"
	"github.com/myrjola/gymplan/internal/flightrecorder"
	"github.com/myrjola/gymplan/internal/logging"
	"github.com/myrjola/gymplan/internal/planner"
	"github.com/myrjola/gymplan/internal/sqlite"
)

type application struct {
	logger         *slog.Logger
	planner        *planner.Service
	flightRecorder *flightrecorder.Recorder
	requestTimeout time.Duration
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"GYMPLAN_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"GYMPLAN_SQLITE_URL" envDefault:"./gymplan.sqlite3"`
	// CatalogSeed is the path to a YAML catalog seed. The built-in catalog is used when empty.
	CatalogSeed string `env:"GYMPLAN_CATALOG_SEED" envDefault:""`
	// RequestTimeout bounds reading, handling and writing a request.
	RequestTimeout time.Duration `env:"GYMPLAN_REQUEST_TIMEOUT" envDefault:"2s"`
	// OptimizeInterval is how often PRAGMA optimize runs.
	OptimizeInterval time.Duration `env:"GYMPLAN_OPTIMIZE_INTERVAL" envDefault:"24h"`
	// TracesDir is where timeout traces are written. Flight recording is disabled when empty.
	TracesDir string `env:"GYMPLAN_TRACES_DIR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	seed, err := catalog.Load(cfg.CatalogSeed)
	if err != nil {
		return errors.Wrap(err, "load catalog", slog.String("path", cfg.CatalogSeed))
	}
	if err = seed.Apply(ctx, db); err != nil {
		return errors.Wrap(err, "apply catalog")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "applied catalog",
		slog.Int("exercises", len(seed.Exercises)), slog.Int("templates", len(seed.Templates)))

	var recorder *flightrecorder.Recorder
	if cfg.TracesDir != "" {
		if recorder, err = flightrecorder.New(logger, flightrecorder.Config{
			Directory: cfg.TracesDir,
			MinAge:    0,
			MaxBytes:  0,
			Cooldown:  0,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(ctx)
	}

	app := application{
		logger:         logger,
		planner:        planner.NewService(db, logger),
		flightRecorder: recorder,
		requestTimeout: cfg.RequestTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.configureAndStartServer(ctx, cfg.Addr)
	})
	g.Go(func() error {
		return db.RunOptimizer(ctx, cfg.OptimizeInterval)
	})
	if err = g.Wait(); err != nil {
		return errors.Wrap(err, "run")
	}
	return nil
}

func main() {
	ctx := context.Background()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	})))
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
