package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrDuplicate    = errors.New("assessment already in flight")
	ErrBackpressure = errors.New("assessment queue full")
)
