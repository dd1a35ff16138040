package overpass

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/hotleads/internal/model"
)

// MetersPerMile is the radius conversion factor used for around: filters.
const MetersPerMile = 1609

// Query selects recently opened businesses with a phone and no website
// around a point.
type Query struct {
	Center      model.Coordinates
	RadiusMiles int
	RecencyDays int
	// Today anchors the recency threshold. Zero means time.Now().
	Today time.Time
}

// RadiusMeters returns the search radius in meters.
func (q Query) RadiusMeters() int {
	return q.RadiusMiles * MetersPerMile
}

// Threshold returns the earliest qualifying opening date as YYYY-MM-DD.
func (q Query) Threshold() string {
	today := q.Today
	if today.IsZero() {
		today = time.Now()
	}
	return today.AddDate(0, 0, -q.RecencyDays).Format(time.DateOnly)
}

// String renders the Overpass QL. Each element kind, date tag and phone tag
// combination gets its own clause; the union is returned with way centres.
func (q Query) String() string {
	around := fmt.Sprintf("around:%d,%s,%s", q.RadiusMeters(), formatCoord(q.Center.Lat), formatCoord(q.Center.Lon))
	threshold := q.Threshold()

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, kind := range []string{"node", "way"} {
		for _, phone := range []string{"phone", `"contact:phone"`} {
			for _, dateTag := range []string{"opening_date", "start_date"} {
				fmt.Fprintf(&b, "  %s(%s)[%s][!website][%s](if:t[%q]>=%q);\n",
					kind, around, dateTag, phone, dateTag, threshold)
			}
		}
	}
	b.WriteString(");\nout center;")
	return b.String()
}

// cacheKey identifies a query by its inputs, not by the rendered threshold.
func (q Query) cacheKey() string {
	return fmt.Sprintf("%s|%s|%d|%d", formatCoord(q.Center.Lat), formatCoord(q.Center.Lon), q.RadiusMiles, q.RecencyDays)
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
