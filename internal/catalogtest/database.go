// Package catalogtest provides databases loaded with the default catalog for tests.
package catalogtest

import (
	"testing"

	"github.com/myrjola/gymplan/internal/catalog"
	"github.com/myrjola/gymplan/internal/sqlite"
	"github.com/myrjola/gymplan/internal/testhelpers"
)

// NewDatabase creates an isolated in-memory database loaded with the default catalog. It is closed when the
// test finishes.
func NewDatabase(t *testing.T) *sqlite.Database {
	t.Helper()
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", testhelpers.NewTestLogger(t))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	seed, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	if err = seed.Apply(t.Context(), db); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return db
}
