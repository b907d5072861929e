package movement

import "errors"

// Sentinel kinds for movement errors.
var (
	ErrAnalyzer = errors.New("pose analyzer failed")
)
