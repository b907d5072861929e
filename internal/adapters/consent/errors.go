package consent

import "errors"

// Sentinel kinds for consent errors.
var (
	ErrInvalidAthlete = errors.New("consent: missing athlete id")
	ErrInvalidPurpose = errors.New("consent: missing purpose")
)
