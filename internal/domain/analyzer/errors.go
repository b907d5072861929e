package analyzer

import "errors"

// Sentinel kinds for analyzer errors.
var (
	ErrNoFrames = errors.New("no frames extracted")
	ErrNoPoses  = errors.New("no poses detected")
)
