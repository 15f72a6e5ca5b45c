package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/myrjola/gymplan/internal/errors"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// queryer is satisfied by both *sql.DB and *sql.Tx so that the repositories work inside and outside a unit of work.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repositories bundles the repositories bound to one queryer.
type repositories struct {
	catalog *sqliteCatalog
	plans   *sqlitePlanRepository
	prefs   *sqlitePreferenceRepository
}

func newRepositories(q queryer) repositories {
	return repositories{
		catalog: &sqliteCatalog{q: q},
		plans:   &sqlitePlanRepository{q: q},
		prefs:   &sqlitePreferenceRepository{q: q},
	}
}

// jsonArray encodes values for json_each. A nil slice encodes as an empty array because json_each('null') yields
// a NULL row that would poison NOT IN.
func jsonArray[T any](values []T) string {
	if values == nil {
		values = []T{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", values, err))
	}
	return string(b)
}

// nullID maps the zero id to NULL.
func nullID(id int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id != 0}
}

// queryInts returns the single integer column of every row.
func queryInts(ctx context.Context, q queryer, query string, args ...any) (_ []int, err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	ids := []int{}
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return ids, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
