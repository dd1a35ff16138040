package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hotleads/internal/model"
)

// WriteCSV writes snap as a header row plus one row per lead.
func WriteCSV(w io.Writer, snap model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, l := range snap.Leads {
		if err := cw.Write(record(l)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", l.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// ReadCSV parses a file written by WriteCSV, possibly edited by the operator.
// Columns are located by header so reordering is tolerated; OSM_ID and
// Call Outcome are required. Rows keep file order.
func ReadCSV(r io.Reader) (model.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return model.Snapshot{}, eris.Wrap(err, "export: read csv")
	}
	if len(rows) == 0 {
		return model.Snapshot{}, eris.Wrap(model.ErrInvalidInput, "export: csv is empty")
	}

	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{ColID, ColOutcome} {
		if _, ok := idx[required]; !ok {
			return model.Snapshot{}, eris.Wrapf(model.ErrInvalidInput, "export: csv has no %q column", required)
		}
	}

	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	snap := model.Snapshot{Leads: make([]model.Lead, 0, len(rows)-1)}
	for n, row := range rows[1:] {
		outcome, err := model.ParseOutcome(get(row, ColOutcome))
		if err != nil {
			return model.Snapshot{}, eris.Wrapf(err, "export: csv row %d", n+2)
		}
		days, _ := strconv.Atoi(get(row, ColDaysSince))
		score, _ := strconv.Atoi(get(row, ColScore))
		snap.Leads = append(snap.Leads, model.Lead{
			ID:               get(row, ColID),
			Name:             get(row, ColName),
			Address:          get(row, ColAddress),
			Phone:            get(row, ColPhone),
			ContactAlt:       get(row, ColContactAlt),
			OpeningDate:      get(row, ColOpeningDate),
			DaysSinceOpening: days,
			Score:            score,
			DemoLink:         get(row, ColDemoLink),
			Outcome:          outcome,
		})
	}
	return snap, nil
}
