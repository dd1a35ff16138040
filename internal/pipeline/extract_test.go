package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/pkg/overpass"
)

func TestExtract_JoesTacos(t *testing.T) {
	ext := NewExtractor("")
	resp := &overpass.Response{Elements: []overpass.Element{
		node(101, map[string]string{
			"name":             "Joe's Tacos",
			"phone":            "555-1234",
			"opening_date":     daysAgo(5),
			"addr:housenumber": "9500",
			"addr:street":      "Wilshire Blvd",
			"addr:city":        "Beverly Hills",
			"addr:state":       "CA",
			"addr:postcode":    "90210",
		}),
	}}

	leads := ext.Extract(resp, "90210", testToday)
	require.Len(t, leads, 1)

	l := leads[0]
	assert.Equal(t, "node/101", l.ID)
	assert.Equal(t, "Joe's Tacos", l.Name)
	assert.Equal(t, "9500, Wilshire Blvd, Beverly Hills, CA, 90210", l.Address)
	assert.Equal(t, "555-1234", l.Phone)
	assert.Empty(t, l.ContactAlt)
	assert.Equal(t, daysAgo(5), l.OpeningDate)
	assert.Equal(t, 5, l.DaysSinceOpening)
	assert.Equal(t, 35, l.Score)
	assert.Equal(t, "https://yourdomain.com/demo/joe-s-tacos-90210", l.DemoLink)
	assert.Equal(t, model.OutcomeUncalled, l.Outcome)
	require.NotNil(t, l.Location)
	assert.InDelta(t, 34.09, l.Location.Y(), 1e-9)
}

func TestExtract_Fallbacks(t *testing.T) {
	ext := NewExtractor("https://demo.example.com/")
	resp := &overpass.Response{Elements: []overpass.Element{
		{
			Type:   "way",
			ID:     202,
			Center: &overpass.Center{Lat: 34.1, Lon: -118.41},
			Tags: map[string]string{
				"name":          "Bean There",
				"contact:phone": "555-9876",
				"contact:email": "hi@bean.example",
				"instagram":     "@beanthere",
				"start_date":    daysAgo(2),
				"addr:city":     "Los Angeles",
			},
		},
		node(303, map[string]string{
			"name":         "Lift Gym",
			"phone":        "555-1111",
			"twitter":      "@liftgym",
			"facebook":     "liftgymla",
			"opening_date": daysAgo(40),
		}),
	}}

	leads := ext.Extract(resp, "90001", testToday)
	require.Len(t, leads, 2)

	assert.Equal(t, "way/202", leads[0].ID)
	assert.Equal(t, "555-9876", leads[0].Phone)
	assert.Equal(t, "hi@bean.example", leads[0].ContactAlt, "email beats social")
	assert.Equal(t, "Los Angeles", leads[0].Address)
	assert.Equal(t, 2, leads[0].DaysSinceOpening)
	assert.Equal(t, 28+10+5, leads[0].Score)
	assert.Equal(t, "https://demo.example.com/bean-there-90001", leads[0].DemoLink)
	require.NotNil(t, leads[0].Location)
	assert.InDelta(t, -118.41, leads[0].Location.X(), 1e-9)

	assert.Equal(t, "liftgymla", leads[1].ContactAlt, "facebook beats twitter")
	assert.Equal(t, 15, leads[1].Score)
}

func TestExtract_DiscardsIncomplete(t *testing.T) {
	ext := NewExtractor("")
	resp := &overpass.Response{Elements: []overpass.Element{
		node(1, map[string]string{"phone": "555", "opening_date": daysAgo(1)}),
		node(2, map[string]string{"name": "No Phone", "opening_date": daysAgo(1)}),
		node(3, map[string]string{"name": "No Date", "phone": "555"}),
		node(4, map[string]string{"name": "Bad Date", "phone": "555", "opening_date": "soon"}),
		node(5, map[string]string{"name": "   ", "phone": "555", "opening_date": daysAgo(1)}),
		node(6, nil),
		freshNode(7, 3),
	}}

	leads := ext.Extract(resp, "90210", testToday)
	require.Len(t, leads, 1)
	assert.Equal(t, "node/7", leads[0].ID)
}

func TestExtract_SourceOrderPreserved(t *testing.T) {
	ext := NewExtractor("")
	resp := &overpass.Response{Elements: []overpass.Element{
		freshNode(1, 20), freshNode(2, 1), freshNode(3, 10),
	}}

	leads := ext.Extract(resp, "90210", testToday)
	require.Len(t, leads, 3)
	assert.Equal(t, []string{"node/1", "node/2", "node/3"}, []string{leads[0].ID, leads[1].ID, leads[2].ID})
}

func TestExtract_NilResponse(t *testing.T) {
	assert.Empty(t, NewExtractor("").Extract(nil, "90210", testToday))
}

func TestExtract_CustomTagTable(t *testing.T) {
	table, err := ParseTagTable([]byte(`
name: [brand, name]
phone: [mobile]
opening_date: [opening_date]
`))
	require.NoError(t, err)

	ext := NewExtractor("").WithTags(table)
	resp := &overpass.Response{Elements: []overpass.Element{
		node(9, map[string]string{"brand": "Brandname", "name": "Local", "mobile": "555-2222", "opening_date": daysAgo(0)}),
	}}
	leads := ext.Extract(resp, "90210", testToday)
	require.Len(t, leads, 1)
	assert.Equal(t, "Brandname", leads[0].Name)
	assert.Equal(t, "555-2222", leads[0].Phone)
	assert.Empty(t, leads[0].Address)
}

func TestParseTagTable_Invalid(t *testing.T) {
	_, err := ParseTagTable([]byte("name: [name]\n"))
	assert.Error(t, err)

	_, err = ParseTagTable([]byte("name: [unterminated"))
	assert.Error(t, err)
}

func TestDefaultTagTable(t *testing.T) {
	table := DefaultTagTable()
	assert.Equal(t, []string{"phone", "contact:phone"}, table.Phone)
	assert.Equal(t, []string{"facebook", "instagram", "twitter"}, table.Social)
	assert.Len(t, table.Address, 5)
}

func TestParseOpeningDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-06-10", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{"2024-06", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"June 10, 2024", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{"2024-06-10T08:00:00Z", time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOpeningDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	for _, bad := range []string{"", "soon", "2024-13-45"} {
		_, err := ParseOpeningDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseOpeningDate_PartialIgnoresToday(t *testing.T) {
	now := time.Now().UTC()

	got, err := ParseOpeningDate(now.Format("2006"))
	require.NoError(t, err)
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 1, got.Day())

	got, err = ParseOpeningDate(now.Format("2006-01"))
	require.NoError(t, err)
	assert.Equal(t, now.Month(), got.Month())
	assert.Equal(t, 1, got.Day())
}

func TestDaysBetween(t *testing.T) {
	opened := time.Date(2024, 6, 10, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 5, DaysBetween(opened, testToday))
	assert.Equal(t, 0, DaysBetween(testToday, testToday))
	assert.Equal(t, 0, DaysBetween(testToday.AddDate(0, 0, 3), testToday), "future dates clamp to zero")
}
