package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/pkg/overpass"
)

// DefaultDemoBaseURL prefixes every demo link.
const DefaultDemoBaseURL = "https://yourdomain.com/demo"

// Extractor turns raw Overpass elements into scored leads.
type Extractor struct {
	tags        TagTable
	demoBaseURL string
}

// NewExtractor creates an Extractor using the built-in tag table.
func NewExtractor(demoBaseURL string) *Extractor {
	if demoBaseURL == "" {
		demoBaseURL = DefaultDemoBaseURL
	}
	return &Extractor{
		tags:        DefaultTagTable(),
		demoBaseURL: strings.TrimRight(demoBaseURL, "/"),
	}
}

// WithTags returns a copy of e using t.
func (e *Extractor) WithTags(t TagTable) *Extractor {
	out := *e
	out.tags = t
	return &out
}

// Extract converts elements in source order. Elements without a name, a phone
// or a parsable opening date are dropped. today is the reference date for
// DaysSinceOpening.
func (e *Extractor) Extract(resp *overpass.Response, postalCode string, today time.Time) []model.Lead {
	if resp == nil {
		return nil
	}

	leads := make([]model.Lead, 0, len(resp.Elements))
	var skipped int
	for _, el := range resp.Elements {
		lead, ok := e.extractOne(el, postalCode, today)
		if !ok {
			skipped++
			continue
		}
		leads = append(leads, lead)
	}

	zap.L().Debug("pipeline: extracted leads",
		zap.Int("elements", len(resp.Elements)),
		zap.Int("leads", len(leads)),
		zap.Int("skipped", skipped),
	)
	return leads
}

func (e *Extractor) extractOne(el overpass.Element, postalCode string, today time.Time) (model.Lead, bool) {
	name := first(el.Tags, e.tags.Name)
	if name == "" {
		return model.Lead{}, false
	}
	phone := first(el.Tags, e.tags.Phone)
	if phone == "" {
		return model.Lead{}, false
	}
	opening := first(el.Tags, e.tags.OpeningDate)
	opened, err := ParseOpeningDate(opening)
	if err != nil {
		return model.Lead{}, false
	}

	contactAlt := first(el.Tags, e.tags.Email)
	if contactAlt == "" {
		contactAlt = first(el.Tags, e.tags.Social)
	}

	days := DaysBetween(opened, today)
	lead := model.Lead{
		ID:               LeadID(el),
		Name:             name,
		Address:          joinPresent(el.Tags, e.tags.Address),
		Phone:            phone,
		ContactAlt:       contactAlt,
		OpeningDate:      opening,
		DaysSinceOpening: days,
		Score:            Score(days, contactAlt != ""),
		DemoLink:         e.DemoLink(name, postalCode),
		Outcome:          model.OutcomeUncalled,
	}
	if coords, ok := el.Coordinates(); ok {
		lead.Location = coords.NewPoint()
	}
	return lead, true
}

// DemoLink builds the personalised demo URL for a business.
func (e *Extractor) DemoLink(name, postalCode string) string {
	return e.demoBaseURL + "/" + Slugify(name+"-"+postalCode)
}

// LeadID formats the stable "{type}/{id}" identifier of an element.
func LeadID(el overpass.Element) string {
	return fmt.Sprintf("%s/%d", el.Type, el.ID)
}

var (
	yearOnly  = regexp.MustCompile(`^\d{4}$`)
	yearMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// ParseOpeningDate parses an OSM date tag. Partial dates ("2024",
// "2024-06") resolve to the first day of the period rather than borrowing
// the missing month or day from today's date, so the same tag always yields
// the same opening date and a year-only tag ages out of short recency
// windows.
func ParseOpeningDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return time.Time{}, eris.New("pipeline: empty date")
	case yearOnly.MatchString(s):
		t, err := time.Parse("2006", s)
		return t, eris.Wrapf(err, "pipeline: parse date %q", s)
	case yearMonth.MatchString(s):
		t, err := time.Parse("2006-01", s)
		return t, eris.Wrapf(err, "pipeline: parse date %q", s)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "pipeline: parse date %q", s)
	}
	return t, nil
}

// DaysBetween returns whole calendar days from opened to today, clamped at
// zero for dates in the future.
func DaysBetween(opened, today time.Time) int {
	o := time.Date(opened.Year(), opened.Month(), opened.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return max(0, int(t.Sub(o).Hours()/24))
}
