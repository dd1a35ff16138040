package model

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Failure taxonomy surfaced to the operator. Every pipeline failure wraps
// exactly one of these.
var (
	ErrInvalidInput  = eris.New("invalid input")
	ErrGeocodeFailed = eris.New("geocode failed")
	ErrNoData        = eris.New("no data")
	ErrRateLimited   = eris.New("rate limited")
	ErrPersistence   = eris.New("persistence failure")
	ErrRunInProgress = eris.New("run in progress")
)

// UserMessage maps an error to the single human-readable message shown to the
// operator for its taxonomy entry.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "Please enter a valid 5-digit U.S. ZIP code, a radius of " + RadiiText() + " miles and a window of 1-30 days"
	case errors.Is(err, ErrGeocodeFailed):
		return "Could not geocode ZIP code. Try again later."
	case errors.Is(err, ErrNoData):
		return "No data: try a wider radius or shorter date window"
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded: please wait and try again."
	case errors.Is(err, ErrPersistence):
		return "Could not read or write call outcomes. Check the database and try again."
	case errors.Is(err, ErrRunInProgress):
		return "A search is already running. Wait for it to finish."
	default:
		return "Unexpected error: " + err.Error()
	}
}
