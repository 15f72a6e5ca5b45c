package sqlite

import (
	"log/slog"
	"testing"

	"github.com/myrjola/gymplan/internal/testhelpers"
)

func TestDatabase_migrateTo(t *testing.T) {
	t.Parallel()
	const (
		facilities          = "CREATE TABLE facilities (id INTEGER PRIMARY KEY, name TEXT NOT NULL)"
		facilitiesWithCity  = "CREATE TABLE facilities (id INTEGER PRIMARY KEY, name TEXT NOT NULL, city TEXT)"
		facilitiesNameIndex = "CREATE INDEX facilities_name ON facilities (name)"
		rejectInsert        = `CREATE TRIGGER facilities_reject AFTER INSERT ON facilities
                               BEGIN SELECT RAISE ( FAIL, 'fail' ); END`
	)
	tests := []struct {
		name              string
		schemaDefinitions []string
		testQueries       []string
		wantErr           bool
	}{
		{
			name:              "empty schema",
			schemaDefinitions: []string{""},
			testQueries:       []string{"SELECT * FROM sqlite_schema"},
		},
		{
			name:              "create table",
			schemaDefinitions: []string{facilities},
			testQueries:       []string{"INSERT INTO facilities (name) VALUES ('Downtown')"},
		},
		{
			name:              "drop table",
			schemaDefinitions: []string{facilities, ""},
			testQueries:       []string{"INSERT INTO facilities (name) VALUES ('Downtown')"},
			wantErr:           true,
		},
		{
			name:              "add column",
			schemaDefinitions: []string{facilities, facilitiesWithCity},
			testQueries:       []string{"INSERT INTO facilities (name, city) VALUES ('Downtown', 'Helsinki')"},
		},
		{
			name:              "remove column",
			schemaDefinitions: []string{facilitiesWithCity, facilities},
			testQueries:       []string{"INSERT INTO facilities (name, city) VALUES ('Downtown', 'Helsinki')"},
			wantErr:           true,
		},
		{
			name:              "create index",
			schemaDefinitions: []string{facilities + ";" + facilitiesNameIndex},
			testQueries:       []string{"DROP INDEX facilities_name"},
		},
		{
			name:              "drop index",
			schemaDefinitions: []string{facilities + ";" + facilitiesNameIndex, facilities},
			testQueries:       []string{"DROP INDEX facilities_name"},
			wantErr:           true,
		},
		{
			name: "index survives table rebuild",
			schemaDefinitions: []string{
				facilities + ";" + facilitiesNameIndex,
				facilitiesWithCity + ";" + facilitiesNameIndex,
			},
			testQueries: []string{"DROP INDEX facilities_name"},
		},
		{
			name:              "create trigger",
			schemaDefinitions: []string{facilities + ";" + rejectInsert},
			testQueries:       []string{"INSERT INTO facilities (name) VALUES ('Downtown')"},
			wantErr:           true,
		},
		{
			name:              "delete trigger",
			schemaDefinitions: []string{facilities + ";" + rejectInsert, facilities},
			testQueries:       []string{"INSERT INTO facilities (name) VALUES ('Downtown')"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := t.Context()
			logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
			db, err := connect(ctx, ":memory:", logger)
			if err != nil {
				t.Fatalf("Failed to connect to database: %v", err)
			}
			t.Cleanup(func() {
				if err = db.Close(); err != nil {
					t.Errorf("Failed to close database: %v", err)
				}
			})

			for _, schemaDefinition := range tt.schemaDefinitions {
				logger.LogAttrs(ctx, slog.LevelInfo, "migrating", slog.String("schema", schemaDefinition))
				if err = db.migrateTo(ctx, schemaDefinition); err != nil {
					t.Fatalf("Failed to migrate: %v", err)
				}
			}

			for _, query := range tt.testQueries {
				_, err = db.ReadWrite.ExecContext(ctx, query)
				if tt.wantErr && err == nil {
					t.Errorf("Expected error for query %q, but got none", query)
				}
				if !tt.wantErr && err != nil {
					t.Errorf("Unexpected error for query %q: %v", query, err)
				}
			}
		})
	}
}

func TestDatabase_migrateTo_keepsRows(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	db, err := connect(ctx, ":memory:", testhelpers.NewTestLogger(t))
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = db.migrateTo(ctx, "CREATE TABLE equipment (id INTEGER PRIMARY KEY, name TEXT NOT NULL)"); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "INSERT INTO equipment (id, name) VALUES (50, 'Dumbbells')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err = db.migrateTo(ctx,
		"CREATE TABLE equipment (id INTEGER PRIMARY KEY, name TEXT NOT NULL, portable INTEGER NOT NULL DEFAULT 0)",
	); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	var name string
	var portable int
	if err = db.ReadWrite.QueryRowContext(ctx, "SELECT name, portable FROM equipment WHERE id = 50").
		Scan(&name, &portable); err != nil {
		t.Fatalf("select: %v", err)
	}
	if name != "Dumbbells" || portable != 0 {
		t.Errorf("got (%q, %d), want (\"Dumbbells\", 0)", name, portable)
	}
}
