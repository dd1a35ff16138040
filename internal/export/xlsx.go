package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/hotleads/internal/model"
)

// xlsxSheetName keeps within Excel's 31-character sheet name limit.
const xlsxSheetName = "Leads"

// WriteXLSX saves snap to path as a single-sheet workbook. Day and score
// columns are numeric cells.
func WriteXLSX(path string, snap model.Snapshot) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(xlsxSheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for _, l := range snap.Leads {
		row := sheet.AddRow()
		for i, v := range record(l) {
			cell := row.AddCell()
			switch Columns[i] {
			case ColDaysSince:
				cell.SetInt(l.DaysSinceOpening)
			case ColScore:
				cell.SetInt(l.Score)
			default:
				cell.SetString(v)
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
