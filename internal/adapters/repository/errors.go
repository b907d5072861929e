package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound  = errors.New("assessment result not found")
	ErrInvalidID = errors.New("invalid assessment id")
	ErrClosed    = errors.New("store closed")
)
