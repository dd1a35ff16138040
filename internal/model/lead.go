// Package model defines the lead, outcome and snapshot types shared by the
// discovery pipeline, the stores and the exporters.
package model

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Lead is a candidate newly-opened business surfaced as a sales prospect.
type Lead struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Address          string      `json:"address"`
	Phone            string      `json:"phone"`
	ContactAlt       string      `json:"contact_alt"`
	OpeningDate      string      `json:"opening_date"` // raw tag value
	DaysSinceOpening int         `json:"days_since_opening"`
	Score            int         `json:"score"`
	DemoLink         string      `json:"demo_link"`
	Outcome          Outcome     `json:"outcome"`
	Location         *geom.Point `json:"-"`
	DistanceMiles    float64     `json:"distance_mi,omitempty"`
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewPoint returns c as an SRID 4326 point (x = lon, y = lat).
func (c Coordinates) NewPoint() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(4326)
}

const earthRadiusMiles = 3958.8

// DistanceMiles returns the great-circle distance between two points in miles.
func DistanceMiles(a, b *geom.Point) float64 {
	if a == nil || b == nil || a.Empty() || b.Empty() {
		return 0
	}
	lat1, lat2 := radians(a.Y()), radians(b.Y())
	dLat := lat2 - lat1
	dLon := radians(b.X() - a.X())
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
