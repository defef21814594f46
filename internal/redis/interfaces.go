package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for per-ride locking.
type LockStoreInterface interface {
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error)
	WaitRideLock(ctx context.Context, rideID string, ttl time.Duration) error
	ReleaseRideLock(ctx context.Context, rideID string) error
}

// AvailabilityStoreInterface defines the interface for the driver
// availability mirror.
type AvailabilityStoreInterface interface {
	MarkAvailable(ctx context.Context, driverID string) error
	MarkBusy(ctx context.Context, driverID string) error
	Candidates(ctx context.Context) ([]string, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface         = (*LockStore)(nil)
	_ AvailabilityStoreInterface = (*AvailabilityStore)(nil)
)
