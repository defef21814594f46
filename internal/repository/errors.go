package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleState is returned when a compare-and-swap status update
	// observed a different current status than expected.
	ErrStaleState = errors.New("ride status changed concurrently")
)
