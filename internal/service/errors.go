package service

import "errors"

var (
	// ErrNoDriverAvailable is returned when no driver can be matched.
	ErrNoDriverAvailable = errors.New("no available driver found")

	// ErrInvalidRideState is returned when a transition is attempted from a
	// state the lifecycle state machine forbids. Mirrors the on-chain
	// program's InvalidRideState error (code 6001).
	ErrInvalidRideState = errors.New("invalid ride state for transition")

	// ErrRideAlreadyCompleted is returned when cancelling a completed ride.
	// Mirrors the on-chain program's RideAlreadyCompleted error (code 6000).
	ErrRideAlreadyCompleted = errors.New("ride is already completed and cannot be cancelled")

	// ErrSubmissionFailed is returned when the on-chain command could not be
	// confirmed. The local projection is left untouched in that case.
	ErrSubmissionFailed = errors.New("ledger submission failed")

	// ErrInvalidRider is returned when the rider identity is empty.
	ErrInvalidRider = errors.New("invalid rider")

	// ErrInvalidRideID is returned when the ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidDriverID is returned when the driver identity is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDropLocation is returned when drop coordinates are invalid.
	ErrInvalidDropLocation = errors.New("invalid drop location")

	// ErrInvalidCancelledBy is returned when the cancelling party is neither
	// rider nor driver.
	ErrInvalidCancelledBy = errors.New("cancelled_by must be rider or driver")
)
