package benchmark

import "errors"

// Sentinel kinds for benchmark errors.
var (
	ErrInvalidCurve = errors.New("invalid benchmark curve")
)
