package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// WriteXLSX saves records to a new workbook at path with one sheet.
// Numeric and boolean values keep their cell types.
func WriteXLSX(path, sheetName string, records []tabular.Record) (int, error) {
	if path == "" {
		return 0, eris.New("xlsx: no output path")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return 0, eris.Wrapf(err, "xlsx: add sheet %s", sheetName)
	}

	columns := tabular.Columns(records)
	header := sheet.AddRow()
	for _, c := range columns {
		header.AddCell().SetString(c)
	}

	for _, rec := range records {
		row := sheet.AddRow()
		for _, c := range columns {
			setCell(row.AddCell(), rec[c])
		}
	}

	if err := f.Save(path); err != nil {
		return 0, eris.Wrap(err, "xlsx: save file")
	}
	return len(records), nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch x := v.(type) {
	case float64:
		cell.SetFloat(x)
	case int:
		cell.SetInt(x)
	case int64:
		cell.SetInt64(x)
	case bool:
		cell.SetBool(x)
	default:
		cell.SetString(Cell(v))
	}
}
