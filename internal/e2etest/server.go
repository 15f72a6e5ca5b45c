package e2etest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"
	"testing"

	"github.com/myrjola/gymplan/internal/logging"
)

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// LogDsnKey is the data source name key used to log the SQL DSN.
const LogDsnKey = "sqlDsn"

// RunFunc has the signature of the application entry point.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is an application instance running in the background of a test. The test reaches it over HTTP through
// Client and inspects its state through DB.
type Server struct {
	client   *Client
	db       *sql.DB
	cancel   context.CancelCauseFunc
	runErr   chan error
	stopOnce sync.Once
	stopErr  error
}

// StartServer runs the application with run and returns once /api/healthy responds. The server is shut down when
// the test finishes and shutdown failures fail the test.
//
// The application must log the listen address under LogAddrKey and the database DSN under LogDsnKey. Logs are
// written to logSink, usually testhelpers.NewWriter.
func StartServer(
	t testing.TB,
	logSink io.Writer,
	lookupEnv func(string) (string, bool),
	run RunFunc,
) (*Server, error) {
	t.Helper()
	ctx, cancel := context.WithCancelCause(t.Context())
	server := &Server{
		client:   nil,
		db:       nil,
		cancel:   cancel,
		runErr:   make(chan error, 1),
		stopOnce: sync.Once{},
		stopErr:  nil,
	}
	t.Cleanup(func() {
		if err := server.Shutdown(); err != nil {
			t.Errorf("shut down test server: %v", err)
		}
	})

	watched := newAttrWatcher(LogAddrKey, LogDsnKey)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: watched.replaceAttr,
	})))
	go func() {
		err := run(ctx, logger, lookupEnv)
		if err != nil {
			cancel(err)
		}
		server.runErr <- err
	}()

	attrs, err := watched.wait(ctx)
	if err != nil {
		return nil, err
	}
	if server.client, err = NewClient("http://" + attrs[LogAddrKey]); err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = server.client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	if server.db, err = sql.Open("sqlite3", attrs[LogDsnKey]); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return server, nil
}

// Client returns an unauthenticated client. Use [Client.AsUser] to act as a user.
func (s *Server) Client() *Client {
	return s.client
}

// User is a shorthand for Client().AsUser(userID).
func (s *Server) User(userID int) *Client {
	return s.client.AsUser(userID)
}

// DB is a connection to the database of the running server.
func (s *Server) DB() *sql.DB {
	return s.db
}

// Count runs a COUNT query against the server database.
func (s *Server) Count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Shutdown stops the server and closes the database connection. It returns the error the application exited with
// together with any close error. Later calls return the same result.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() {
		s.cancel(nil)
		runErr := <-s.runErr
		var closeErr error
		if s.db != nil {
			if err := s.db.Close(); err != nil {
				closeErr = fmt.Errorf("close database: %w", err)
			}
		}
		if runErr != nil {
			runErr = fmt.Errorf("run: %w", runErr)
		}
		s.stopErr = errors.Join(runErr, closeErr)
	})
	return s.stopErr
}

// attrWatcher collects the first value logged for each watched key.
type attrWatcher struct {
	mu     sync.Mutex
	values map[string]string
	found  chan struct{}
}

func newAttrWatcher(keys ...string) *attrWatcher {
	values := make(map[string]string, len(keys))
	for _, k := range keys {
		values[k] = ""
	}
	return &attrWatcher{mu: sync.Mutex{}, values: values, found: make(chan struct{}, 1)}
}

func (w *attrWatcher) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	w.mu.Lock()
	defer w.mu.Unlock()
	if v, watched := w.values[a.Key]; watched && v == "" {
		w.values[a.Key] = a.Value.String()
		select {
		case w.found <- struct{}{}:
		default:
		}
	}
	return a
}

// wait blocks until every watched key has been logged or ctx is done.
func (w *attrWatcher) wait(ctx context.Context) (map[string]string, error) {
	for {
		w.mu.Lock()
		missing := ""
		for k, v := range w.values {
			if v == "" {
				missing = k
				break
			}
		}
		if missing == "" {
			values := maps.Clone(w.values)
			w.mu.Unlock()
			return values, nil
		}
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %q in logs: %w", missing, context.Cause(ctx))
		case <-w.found:
		}
	}
}
