package model

import (
	"fmt"
	"time"
)

// Snapshot is a point-in-time table of leads as displayed to, or edited by,
// the operator. Row order is significant: reconciliation matches rows by index.
type Snapshot struct {
	ID         string    `json:"id"`
	PostalCode string    `json:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
	Leads      []Lead    `json:"leads"`
}

// Clone returns a copy whose rows can be edited without touching s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Leads = append([]Lead(nil), s.Leads...)
	return out
}

// Outcomes returns the outcome column in row order.
func (s Snapshot) Outcomes() []Outcome {
	out := make([]Outcome, len(s.Leads))
	for i, l := range s.Leads {
		out[i] = l.Outcome
	}
	return out
}

// Title names exported copies of the snapshot, e.g. Leads_90210_20250102150405.
func (s Snapshot) Title(now time.Time) string {
	return fmt.Sprintf("Leads_%s_%s", s.PostalCode, now.UTC().Format("20060102150405"))
}

// SMSTemplate is the outreach text pointing at the top lead's demo page.
func (s Snapshot) SMSTemplate() string {
	link := ""
	if len(s.Leads) > 0 {
		link = s.Leads[0].DemoLink
	}
	return fmt.Sprintf("Hi, check out our demo at %s", link)
}
