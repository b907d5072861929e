package integrity

import "errors"

// Sentinel kinds for integrity errors.
var (
	ErrInvalidThresholds = errors.New("invalid risk thresholds")
	ErrInvalidWeights    = errors.New("invalid signal weights")
	ErrSignal            = errors.New("integrity signal failed")
)
