// Package export writes flattened indicator rows to files, streams and
// databases.
package export

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/indicator-cli/internal/db"
	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// Format names an output encoding.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
)

// BatchColumn tags every database row with the export run that wrote it.
const BatchColumn = "batch_id"

// ParseFormat parses a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatYAML, FormatCSV, FormatXLSX, FormatSQLite, FormatPostgres:
		return f, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// Tabular reports whether the format only accepts flat rows.
func (f Format) Tabular() bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatSQLite, FormatPostgres:
		return true
	default:
		return false
	}
}

// Target says where and how to write.
type Target struct {
	Format Format
	// Writer receives json, yaml and csv output.
	Writer io.Writer
	// Path is the xlsx or sqlite file.
	Path string
	// Table is the sheet or table name.
	Table string
	// Pool is the Postgres connection for FormatPostgres.
	Pool db.Pool
	// BatchID tags database rows. Generated when empty.
	BatchID string
}

// Write writes records to t and returns the number of rows written.
func Write(ctx context.Context, t Target, records []tabular.Record) (int, error) {
	switch t.Format {
	case FormatJSON, FormatYAML:
		if err := WriteValue(t.Writer, t.Format, records); err != nil {
			return 0, err
		}
		return len(records), nil
	case FormatCSV:
		return WriteCSV(t.Writer, records)
	case FormatXLSX:
		return WriteXLSX(t.Path, sheetName(t.Table), records)
	case FormatSQLite:
		return WriteSQLite(ctx, t.Path, t.Table, batchID(t.BatchID), records)
	case FormatPostgres:
		return WritePostgres(ctx, t.Pool, t.Table, batchID(t.BatchID), records)
	default:
		return 0, eris.Errorf("export: unsupported format %q", t.Format)
	}
}

// WriteValue encodes any value as indented JSON or YAML.
func WriteValue(w io.Writer, f Format, v any) error {
	if w == nil {
		return eris.New("export: no writer")
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "export: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
		return eris.Wrap(enc.Close(), "export: close yaml encoder")
	default:
		return eris.Errorf("export: %s cannot encode nested values", f)
	}
}

func batchID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func sheetName(table string) string {
	if table == "" {
		return "indicators"
	}
	return table
}

// Cell renders a value as a single text cell. Strings pass through, numbers
// use their shortest form, nil is empty and anything else is compact JSON.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// dbColumns is the batch column followed by the record columns.
func dbColumns(records []tabular.Record) []string {
	cols := []string{BatchColumn}
	for _, c := range tabular.Columns(records) {
		if c != BatchColumn {
			cols = append(cols, c)
		}
	}
	return cols
}

// rowCells lays records out under columns as text cells.
func rowCells(records []tabular.Record, columns []string) [][]string {
	out := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = Cell(rec[c])
		}
		out[i] = row
	}
	return out
}
