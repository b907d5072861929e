package model

import "errors"

// Sentinel kinds for validation errors.
var (
	ErrInvalidAthlete = errors.New("invalid athlete")
	ErrInvalidRecord  = errors.New("invalid assessment record")
	ErrInvalidVideo   = errors.New("invalid video")
)
