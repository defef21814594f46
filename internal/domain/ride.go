package domain

import "time"

// RideStatus represents the current status of a ride.
//
// The values mirror the on-chain program's RideStatus enum so the off-chain
// projection and the ledger never disagree on vocabulary.
type RideStatus string

const (
	RideStatusRequested RideStatus = "REQUESTED"
	RideStatusAccepted  RideStatus = "ACCEPTED"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

// Terminal reports whether no transition may leave this status.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// CanTransitionTo reports whether the lifecycle state machine allows moving
// from s to next. Transitions are monotonic: a ride never re-enters
// REQUESTED, and COMPLETED/CANCELLED are terminal.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	switch s {
	case RideStatusRequested:
		return next == RideStatusAccepted || next == RideStatusCancelled
	case RideStatusAccepted:
		return next == RideStatusCompleted || next == RideStatusCancelled
	default:
		return false
	}
}

// CancelledBy identifies which party cancelled a ride.
type CancelledBy string

const (
	CancelledByRider  CancelledBy = "rider"
	CancelledByDriver CancelledBy = "driver"
)

// Ride is the off-chain projection of a single ride. It is created on the
// command path, mutated only through guarded status transitions, and never
// physically deleted.
type Ride struct {
	ID          string
	Rider       string // rider identity (public-key-like opaque string)
	Driver      string // empty until matched/accepted
	PickupLat   float64
	PickupLng   float64
	DropLat     float64
	DropLng     float64
	DistanceKm  float64
	Fare        float64
	Status      RideStatus
	CancelledBy CancelledBy
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
