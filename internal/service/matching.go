package service

import (
	"context"
	"errors"
	"log"

	"rideledger/internal/domain"
	"rideledger/internal/redis"
	"rideledger/internal/repository"
)

// MatcherInterface defines the driver matching contract.
// This interface allows for testing with mock implementations.
type MatcherInterface interface {
	Match(ctx context.Context) (*domain.User, error)
}

// Ensure MatchingService implements MatcherInterface.
var _ MatcherInterface = (*MatchingService)(nil)

// MatchingService selects an available driver for a new ride request.
// Selection policy: first available driver found. There is no ranking by
// proximity or rating; the contract only guarantees "some available driver,
// if any exists".
type MatchingService struct {
	userRepo     repository.UserRepository
	availability redis.AvailabilityStoreInterface
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(userRepo repository.UserRepository, availability redis.AvailabilityStoreInterface) *MatchingService {
	return &MatchingService{
		userRepo:     userRepo,
		availability: availability,
	}
}

// Match returns an available driver or ErrNoDriverAvailable. Candidates come
// from the Redis availability mirror and are re-verified against Postgres;
// when the mirror is empty or stale the query falls back to Postgres directly.
func (s *MatchingService) Match(ctx context.Context) (*domain.User, error) {
	if s.availability != nil {
		candidates, err := s.availability.Candidates(ctx)
		if err != nil {
			// Mirror unavailable: Postgres fallback below still answers.
			log.Printf("availability mirror lookup failed: %v", err)
		}

		for _, id := range candidates {
			driver, err := s.userRepo.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return nil, mapMatchErr(err)
			}

			if driver.Role != domain.UserRoleDriver || !driver.Available {
				// Stale mirror entry.
				_ = s.availability.MarkBusy(ctx, id)
				continue
			}

			return driver, nil
		}
	}

	driver, err := s.userRepo.FirstAvailableDriver(ctx)
	if err != nil {
		return nil, mapMatchErr(err)
	}
	return driver, nil
}

// mapMatchErr converts lookup failures into the matching error taxonomy:
// both an empty candidate set and an exceeded deadline surface as
// ErrNoDriverAvailable so ride creation aborts without hanging.
func mapMatchErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return ErrNoDriverAvailable
	}
	return err
}
