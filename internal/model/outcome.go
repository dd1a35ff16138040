package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Outcome is the recorded result of attempting to contact a lead.
type Outcome string

const (
	OutcomeUncalled  Outcome = "Uncalled"
	OutcomeConnected Outcome = "Connected"
	OutcomeVoicemail Outcome = "Voicemail"
	OutcomeNoAnswer  Outcome = "No Answer"
)

// Outcomes lists every valid outcome in display order.
var Outcomes = []Outcome{OutcomeUncalled, OutcomeConnected, OutcomeVoicemail, OutcomeNoAnswer}

// ParseOutcome resolves s to an Outcome, ignoring case and surrounding space.
// An empty string is Uncalled.
func ParseOutcome(s string) (Outcome, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return OutcomeUncalled, nil
	}
	for _, o := range Outcomes {
		if strings.EqualFold(trimmed, string(o)) {
			return o, nil
		}
	}
	return "", eris.Wrapf(ErrInvalidInput, "unknown outcome %q", s)
}

func (o Outcome) String() string { return string(o) }
