package domain

import "time"

// EventKind classifies a normalized ledger notification.
type EventKind string

const (
	EventAcceptedOnChain  EventKind = "ACCEPTED_ON_CHAIN"
	EventCompletedOnChain EventKind = "COMPLETED_ON_CHAIN"
	EventCancelledOnChain EventKind = "CANCELLED_ON_CHAIN"
	EventUnknown          EventKind = "UNKNOWN"
)

// Event is the normalized form of a ledger notification, produced by the
// listener and folded into the ride projection by the reconciliation engine.
// Events are ephemeral: they are not persisted independently of their effect
// on a Ride, and delivery is at-least-once with no ordering guarantee.
type Event struct {
	RideID     string
	Kind       EventKind
	Slot       uint64 // ledger slot the notification was observed at
	ObservedAt time.Time
}
