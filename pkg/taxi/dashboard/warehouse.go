// Package dashboard serves the analytics queries over the trip warehouse as a
// JSON API.
//
// Every query is restricted to a set of pickup months ("YYYY-MM"), bound as a
// single array parameter. Results are plain structs with JSON tags so the API
// can encode them unchanged.
package dashboard

import (
	"context"
	"database/sql"
	"regexp"
	"sort"

	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

const moduleName = "dashboard"

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// OpenWarehouse opens a pgx-backed pool for dsn. The connection is checked lazily.
func OpenWarehouse(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, exception.New(exception.KindConfig, moduleName, "warehouse_dsn is not configured", nil)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, exception.New(exception.KindConfig, moduleName, "failed to open warehouse", err)
	}
	return db, nil
}

// NormalizeMonths validates, de-duplicates and sorts a month selection.
func NormalizeMonths(months []string) ([]string, error) {
	if len(months) == 0 {
		return nil, exception.New(exception.KindConfig, moduleName, "select at least one month", nil)
	}
	seen := make(map[string]struct{}, len(months))
	out := make([]string, 0, len(months))
	for _, m := range months {
		if !monthPattern.MatchString(m) {
			return nil, exception.Newf(exception.KindConfig, moduleName, "invalid month %q, expected YYYY-MM", m)
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// Warehouse runs the analytics query catalogue against fact_trips and its dimensions.
type Warehouse struct {
	db *sql.DB
}

// NewWarehouse wraps an open pool.
func NewWarehouse(db *sql.DB) *Warehouse {
	return &Warehouse{db: db}
}

// Ping checks the warehouse connection.
func (w *Warehouse) Ping(ctx context.Context) error {
	if err := w.db.PingContext(ctx); err != nil {
		return exception.New(exception.KindIO, moduleName, "warehouse unavailable", err)
	}
	return nil
}

// query runs q with the month array as $1 and hands each row to scan.
func (w *Warehouse) query(ctx context.Context, name, q string, months []string, scan func(*sql.Rows) error) error {
	months, err := NormalizeMonths(months)
	if err != nil {
		return err
	}
	rows, err := w.db.QueryContext(ctx, q, months)
	if err != nil {
		return exception.New(exception.KindIO, moduleName, "query "+name+" failed", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return exception.New(exception.KindIO, moduleName, "query "+name+": scan failed", err)
		}
	}
	if err := rows.Err(); err != nil {
		return exception.New(exception.KindIO, moduleName, "query "+name+" failed", err)
	}
	return nil
}
