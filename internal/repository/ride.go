package repository

import (
	"context"

	"rideledger/internal/domain"
)

// StatusUpdate describes a guarded ride status transition. The write only
// succeeds when the ride is still in From at update time, which makes every
// transition an explicit compare-and-swap rather than a blind delta.
type StatusUpdate struct {
	RideID      string
	From        domain.RideStatus
	To          domain.RideStatus
	Driver      string             // set on accept, otherwise empty
	CancelledBy domain.CancelledBy // set on cancel, otherwise empty
}

// RideRepository defines the persistence operations for the ride projection.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetAll retrieves recent rides.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// UpdateStatus applies a guarded status transition. It returns
	// ErrStaleState when the ride is no longer in upd.From and ErrNotFound
	// when the ride does not exist.
	UpdateStatus(ctx context.Context, upd StatusUpdate) error
}
