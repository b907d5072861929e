package dedupe

import "errors"

// Sentinel kinds for guard errors.
var (
	ErrInFlight = errors.New("assessment already in flight")
	ErrFull     = errors.New("in-flight guard at capacity")
)
