package notify

import "errors"

// Sentinel kinds for notification errors.
var (
	ErrNoEndpoint = errors.New("notification endpoint not configured")
	ErrRejected   = errors.New("notification rejected")
	ErrDelivery   = errors.New("notification delivery failed")
)
