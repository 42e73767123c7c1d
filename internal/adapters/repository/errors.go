package repository

import "errors"

// Sentinel kinds for catalog persistence errors.
var (
	ErrNotFound       = errors.New("catalog not found")
	ErrLocked         = errors.New("catalog is locked by another writer")
	ErrInvalidAirport = errors.New("invalid airport code")
)
