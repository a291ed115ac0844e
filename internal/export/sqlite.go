package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// WriteSQLite appends records to table in the SQLite database at path. The
// table is created or widened as needed; every column is TEXT.
func WriteSQLite(ctx context.Context, path, table, batch string, records []tabular.Record) (int, error) {
	if path == "" {
		return 0, eris.New("sqlite: no output path")
	}
	if table == "" {
		return 0, eris.New("sqlite: no table name")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: open")
	}
	defer conn.Close() //nolint:errcheck

	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		return 0, eris.Wrap(err, "sqlite: exec PRAGMA busy_timeout")
	}

	columns := dbColumns(records)
	if err := ensureSQLiteTable(ctx, conn, table, columns); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, cells := range rowCells(records, columns[1:]) {
		args := make([]any, 0, len(columns))
		args = append(args, batch)
		for _, c := range cells {
			args = append(args, c)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrap(err, "sqlite: insert row")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return len(records), nil
}

func ensureSQLiteTable(ctx context.Context, conn *sql.DB, table string, columns []string) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := conn.ExecContext(ctx, createSQL); err != nil {
		return eris.Wrapf(err, "sqlite: create table %s", table)
	}

	existing, err := sqliteColumns(ctx, conn, table)
	if err != nil {
		return err
	}
	for _, c := range columns {
		if existing[c] {
			continue
		}
		alterSQL := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", quoteIdent(table), quoteIdent(c))
		if _, err := conn.ExecContext(ctx, alterSQL); err != nil {
			return eris.Wrapf(err, "sqlite: add column %s.%s", table, c)
		}
	}
	return nil
}

func sqliteColumns(ctx context.Context, conn *sql.DB, table string) (map[string]bool, error) {
	rows, err := conn.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: table info %s", table)
	}
	defer rows.Close() //nolint:errcheck

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan column name")
		}
		cols[name] = true
	}
	return cols, eris.Wrap(rows.Err(), "sqlite: iterate columns")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
