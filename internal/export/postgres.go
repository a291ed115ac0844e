package export

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/indicator-cli/internal/db"
	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// WritePostgres COPYs records into table, creating or widening it first.
func WritePostgres(ctx context.Context, pool db.Pool, table, batch string, records []tabular.Record) (int, error) {
	if pool == nil {
		return 0, eris.New("postgres: no connection")
	}
	if table == "" {
		return 0, eris.New("postgres: no table name")
	}
	if len(records) == 0 {
		return 0, nil
	}

	columns := dbColumns(records)
	if err := db.EnsureTextTable(ctx, pool, table, columns); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(records))
	for _, cells := range rowCells(records, columns[1:]) {
		row := make([]any, 0, len(columns))
		row = append(row, batch)
		for _, c := range cells {
			row = append(row, c)
		}
		rows = append(rows, row)
	}

	n, err := db.CopyFrom(ctx, pool, table, columns, rows)
	if err != nil {
		return 0, err
	}

	zap.L().Info("postgres: rows copied",
		zap.String("table", table),
		zap.String("batch_id", batch),
		zap.Int64("rows", n),
	)
	return int(n), nil
}
