package storage

import "errors"

// Label cache errors.
var (
	// ErrNotFound is returned when no cached record exists for an address.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for records without an address.
	ErrInvalidInput = errors.New("invalid input")
)
