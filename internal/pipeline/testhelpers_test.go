package pipeline

import (
	"fmt"
	"time"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/pkg/overpass"
)

var testToday = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testToday }

func daysAgo(n int) string {
	return testToday.AddDate(0, 0, -n).Format(time.DateOnly)
}

func node(id int64, tags map[string]string) overpass.Element {
	return overpass.Element{Type: "node", ID: id, Lat: 34.09, Lon: -118.40, Tags: tags}
}

// freshNode is a qualifying business opened n days ago.
func freshNode(id int64, n int) overpass.Element {
	return node(id, map[string]string{
		"name":         fmt.Sprintf("Shop %d", id),
		"phone":        "555-0000",
		"opening_date": daysAgo(n),
	})
}

func snapshotOf(ids ...string) model.Snapshot {
	leads := make([]model.Lead, len(ids))
	for i, id := range ids {
		leads[i] = model.Lead{ID: id, Name: id, Outcome: model.OutcomeUncalled}
	}
	return model.Snapshot{ID: "snap", PostalCode: "90210", Leads: leads}
}
