package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// WriteCSV writes a header row followed by one line per record.
func WriteCSV(w io.Writer, records []tabular.Record) (int, error) {
	if w == nil {
		return 0, eris.New("csv: no writer")
	}

	columns := tabular.Columns(records)
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return 0, eris.Wrap(err, "csv: write header")
	}
	if err := cw.WriteAll(rowCells(records, columns)); err != nil {
		return 0, eris.Wrap(err, "csv: write rows")
	}
	return len(records), nil
}
