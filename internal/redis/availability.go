package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const availableDriversKey = "drivers:available"

// AvailabilityStore mirrors driver availability in a Redis set so matching
// can pick a candidate without a table scan. Postgres remains authoritative;
// the matcher re-verifies every candidate against it.
type AvailabilityStore struct {
	client *redis.Client
}

// NewAvailabilityStore creates a new AvailabilityStore.
func NewAvailabilityStore(client *redis.Client) *AvailabilityStore {
	return &AvailabilityStore{client: client}
}

// MarkAvailable adds a driver to the availability set.
func (s *AvailabilityStore) MarkAvailable(ctx context.Context, driverID string) error {
	return s.client.SAdd(ctx, availableDriversKey, driverID).Err()
}

// MarkBusy removes a driver from the availability set.
func (s *AvailabilityStore) MarkBusy(ctx context.Context, driverID string) error {
	return s.client.SRem(ctx, availableDriversKey, driverID).Err()
}

// Candidates returns the IDs of drivers currently marked available.
func (s *AvailabilityStore) Candidates(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, availableDriversKey).Result()
}
