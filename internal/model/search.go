package model

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Radii lists the selectable search radii in miles.
// The validate tag on SearchParams.RadiusMiles must list the same values.
var Radii = []int{10, 15, 25}

// RadiiText renders Radii for help and error text: "10, 15 or 25".
func RadiiText() string {
	parts := make([]string, len(Radii))
	for i, r := range Radii {
		parts[i] = strconv.Itoa(r)
	}
	if len(parts) < 2 {
		return strings.Join(parts, "")
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " or " + parts[len(parts)-1]
}

// SearchParams are the operator-supplied pipeline inputs.
type SearchParams struct {
	PostalCode  string `json:"postal_code" validate:"required,len=5,numeric"`
	RadiusMiles int    `json:"radius_miles" validate:"oneof=10 15 25"`
	RecencyDays int    `json:"recency_days" validate:"min=1,max=30"`
	// Refresh purges the geocode and query caches before running.
	Refresh bool `json:"refresh"`
}

// Validate checks p and wraps any violation in ErrInvalidInput.
func (p SearchParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return eris.Wrap(ErrInvalidInput, err.Error())
	}
	return nil
}
