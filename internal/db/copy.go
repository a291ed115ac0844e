// Package db provides Postgres helpers for writing flattened indicator rows.
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of *pgxpool.Pool used here. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// EnsureTextTable creates table if missing and adds any of columns it lacks.
// Every column is TEXT.
func EnsureTextTable(ctx context.Context, pool Pool, table string, columns []string) error {
	if len(columns) == 0 {
		return eris.New("db: ensure table: no columns specified")
	}

	ident := pgx.Identifier{table}.Sanitize()
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident, strings.Join(defs, ", "))
	if _, err := pool.Exec(ctx, createSQL); err != nil {
		return eris.Wrapf(err, "db: create table %s", table)
	}

	// The table may predate some columns.
	for _, c := range columns {
		alterSQL := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT", ident, pgx.Identifier{c}.Sanitize())
		if _, err := pool.Exec(ctx, alterSQL); err != nil {
			return eris.Wrapf(err, "db: add column %s.%s", table, c)
		}
	}
	return nil
}

// CopyFrom bulk-inserts rows into a table using PostgreSQL COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	copySource := pgx.CopyFromRows(rows)
	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, copySource)
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}
