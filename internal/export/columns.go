// Package export renders lead snapshots as CSV, XLSX and Notion databases,
// and reads edited copies back for reconciliation.
package export

import (
	"strconv"

	"github.com/sells-group/hotleads/internal/model"
)

// Column headers, in table order.
const (
	ColID          = "OSM_ID"
	ColName        = "Name"
	ColAddress     = "Address"
	ColPhone       = "Phone"
	ColContactAlt  = "Email/Social"
	ColOpeningDate = "Opening Date"
	ColDaysSince   = "Days Since Opening"
	ColScore       = "Score"
	ColDemoLink    = "Demo Link"
	ColOutcome     = "Call Outcome"
)

// Columns is the header row shared by every export format.
var Columns = []string{
	ColID, ColName, ColAddress, ColPhone, ColContactAlt,
	ColOpeningDate, ColDaysSince, ColScore, ColDemoLink, ColOutcome,
}

func record(l model.Lead) []string {
	outcome := l.Outcome
	if outcome == "" {
		outcome = model.OutcomeUncalled
	}
	return []string{
		l.ID,
		l.Name,
		l.Address,
		l.Phone,
		l.ContactAlt,
		l.OpeningDate,
		strconv.Itoa(l.DaysSinceOpening),
		strconv.Itoa(l.Score),
		l.DemoLink,
		string(outcome),
	}
}
