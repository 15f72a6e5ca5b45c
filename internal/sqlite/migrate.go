package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// schemaType is the sqlite_schema.type of a schema object.
type schemaType string

const (
	schemaTypeTable   schemaType = "table"
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

// schemaDiff lists how the live schema differs from the target schema for one schemaType.
type schemaDiff struct {
	deleted []string
	created []string
	changed []changedSchema
}

type changedSchema struct {
	name    string
	liveSQL string
	newSQL  string
}

// migrateTo makes the live schema match schemaDefinition.
//
// The target schema is created in an attached in-memory database and compared against the live schema. Deleted
// tables are dropped, new tables created and changed tables rebuilt with the 12-step procedure from
// https://www.sqlite.org/lang_altertable.html#otheralter. Triggers and indexes are synchronised afterwards because
// rebuilding a table drops them.
//
// See https://david.rothlis.net/declarative-schema-migration-for-sqlite/.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	// Foreign key enforcement cannot be toggled inside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("re-enable foreign keys: %w", fkErr))
		}
	}()

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := db.migrateTables(ctx, tx); err != nil {
			return fmt.Errorf("migrate tables: %w", err)
		}
		for _, typ := range []schemaType{schemaTypeTrigger, schemaTypeIndex} {
			if err := db.migrateSchema(ctx, tx, typ); err != nil {
				return fmt.Errorf("migrate %s: %w", typ, err)
			}
		}
		return checkForeignKeys(ctx, tx)
	})
	if err != nil {
		return err
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget attaches an in-memory database initialised with schemaDefinition as schemaTarget. The returned
// function detaches it.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open schema target: %w", err)
	}
	// The shared cache keeps the in-memory database alive while it is attached to the live connection.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target", slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create schema target: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(context.WithoutCancel(ctx), "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target", slog.Any("error", detachErr))
		}
	}, nil
}

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	diff, err := db.diffSchema(ctx, tx, schemaTypeTable)
	if err != nil {
		return err
	}
	for _, table := range diff.deleted {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", table))
		if _, err = tx.ExecContext(ctx, "DROP TABLE "+table); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	for _, createSQL := range diff.created {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, table := range diff.changed {
		if err = db.rebuildTable(ctx, tx, table); err != nil {
			return fmt.Errorf("rebuild table %s: %w", table.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies the common columns over, drops the old
// table and renames the new one in its place.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, table changedSchema) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table",
		slog.String("table", table.name),
		slog.String("live_sql", table.liveSQL),
		slog.String("new_sql", table.newSQL))

	tempName := table.name + "_migration_temp"
	if _, err := tx.ExecContext(ctx, strings.Replace(table.newSQL, table.name, tempName, 1)); err != nil {
		return fmt.Errorf("create temporary table: %w", err)
	}

	// Double quotes handle column names that are SQLite keywords.
	columns, err := queryStrings(ctx, tx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
         JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", table.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	common := strings.Join(columns, ", ")

	for _, stmt := range []string{
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", tempName, common, common, table.name),
		"DROP TABLE " + table.name,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, table.name),
	} {
		db.logger.LogAttrs(ctx, slog.LevelDebug, "executing", slog.String("query", stmt))
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// migrateSchema synchronises all objects of typ. Changed objects are dropped and recreated.
func (db *Database) migrateSchema(ctx context.Context, tx *sql.Tx, typ schemaType) error {
	logger := db.logger.With(slog.String("schemaType", string(typ)))
	diff, err := db.diffSchema(ctx, tx, typ)
	if err != nil {
		return err
	}
	keyword := strings.ToUpper(string(typ))
	for _, name := range diff.deleted {
		logger.LogAttrs(ctx, slog.LevelInfo, "dropping", slog.String("name", name))
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP %s %s", keyword, name)); err != nil {
			return fmt.Errorf("drop %s %s: %w", typ, name, err)
		}
	}
	for _, createSQL := range diff.created {
		logger.LogAttrs(ctx, slog.LevelInfo, "creating", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create %s: %w", typ, err)
		}
	}
	for _, changed := range diff.changed {
		logger.LogAttrs(ctx, slog.LevelInfo, "recreating",
			slog.String("name", changed.name),
			slog.String("live_sql", changed.liveSQL),
			slog.String("new_sql", changed.newSQL))
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP %s %s", keyword, changed.name)); err != nil {
			return fmt.Errorf("drop changed %s %s: %w", typ, changed.name, err)
		}
		if _, err = tx.ExecContext(ctx, changed.newSQL); err != nil {
			return fmt.Errorf("create changed %s %s: %w", typ, changed.name, err)
		}
	}
	return nil
}

func (db *Database) diffSchema(ctx context.Context, tx *sql.Tx, typ schemaType) (schemaDiff, error) {
	var (
		diff schemaDiff
		err  error
	)
	if diff.deleted, err = queryStrings(ctx, tx, `SELECT live.name
FROM main.sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND target.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`, typ); err != nil {
		return diff, fmt.Errorf("query deleted %s: %w", typ, err)
	}
	if diff.created, err = queryStrings(ctx, tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN main.sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = ?
  AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%'`, typ); err != nil {
		return diff, fmt.Errorf("query created %s: %w", typ, err)
	}

	// ALTER TABLE RENAME quotes the table name so quotes are ignored in the comparison.
	rows, err := tx.QueryContext(ctx, `SELECT live.name, live.sql, target.sql
FROM main.sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND live.name NOT LIKE 'sqlite_%'
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`, typ)
	if err != nil {
		return diff, fmt.Errorf("query changed %s: %w", typ, err)
	}
	defer rows.Close()
	for rows.Next() {
		var changed changedSchema
		if err = rows.Scan(&changed.name, &changed.liveSQL, &changed.newSQL); err != nil {
			return diff, fmt.Errorf("scan changed %s: %w", typ, err)
		}
		diff.changed = append(diff.changed, changed)
	}
	if err = rows.Err(); err != nil {
		return diff, fmt.Errorf("rows: %w", err)
	}
	return diff, nil
}

func checkForeignKeys(ctx context.Context, tx *sql.Tx) error {
	var table, parent string
	var rowID, fkID sql.NullInt64
	err := tx.QueryRowContext(ctx, "PRAGMA foreign_key_check").Scan(&table, &rowID, &parent, &fkID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	return fmt.Errorf("foreign key violation in %s row %d referencing %s", table, rowID.Int64, parent)
}

// queryStrings returns the single string column of every row.
func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	var results []string
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}
