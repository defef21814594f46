package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"rideledger/internal/domain"
	"rideledger/internal/redis"
	"rideledger/internal/repository"
)

const (
	// rideLockTTL bounds how long a single transition may hold a ride lock
	// before it leaks back to other writers.
	rideLockTTL = 30 * time.Second

	// matchTimeout bounds the driver matcher call so ride creation never
	// hangs on it.
	matchTimeout = 2 * time.Second

	// submitTimeout bounds the on-chain cancel submission.
	submitTimeout = 5 * time.Second
)

// Submitter mirrors user-initiated commands onto the ledger.
type Submitter interface {
	SubmitCancel(ctx context.Context, rideID string, byRider bool) error
}

// RideService is the reconciliation engine: the single authority over the
// ride lifecycle state machine. Both HTTP commands and ledger events converge
// here, and every transition is re-validated against the current projected
// state under a per-ride lock. Redelivered events therefore fold idempotently
// instead of double-applying.
type RideService struct {
	rideRepo     repository.RideRepository
	userRepo     repository.UserRepository
	matcher      MatcherInterface
	locks        redis.LockStoreInterface
	availability redis.AvailabilityStoreInterface
	submitter    Submitter
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	matcher MatcherInterface,
	locks redis.LockStoreInterface,
	availability redis.AvailabilityStoreInterface,
	submitter Submitter,
) *RideService {
	return &RideService{
		rideRepo:     rideRepo,
		userRepo:     userRepo,
		matcher:      matcher,
		locks:        locks,
		availability: availability,
		submitter:    submitter,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	Rider     string
	PickupLat float64
	PickupLng float64
	DropLat   float64
	DropLng   float64
}

// CreateRide computes the fare, matches a driver, and persists a new ride in
// REQUESTED state. Matching runs before any write: when it fails, no partial
// ride record is left behind.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	distanceKm, fare := Quote(req.PickupLat, req.PickupLng, req.DropLat, req.DropLng)

	matchCtx, cancel := context.WithTimeout(ctx, matchTimeout)
	defer cancel()

	driver, err := s.matcher.Match(matchCtx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ride := &domain.Ride{
		ID:         uuid.New().String(),
		Rider:      req.Rider,
		Driver:     driver.ID,
		PickupLat:  req.PickupLat,
		PickupLng:  req.PickupLng,
		DropLat:    req.DropLat,
		DropLng:    req.DropLng,
		DistanceKm: distanceKm,
		Fare:       fare,
		Status:     domain.RideStatusRequested,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	return ride, nil
}

// GetRide retrieves the current projection of a ride.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// ListRides retrieves recent rides.
func (s *RideService) ListRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.GetAll(ctx)
}

// AcceptRide transitions REQUESTED -> ACCEPTED and binds the driver.
// An empty driverID accepts on behalf of the driver matched at creation,
// which is how ledger Accept events fold. A duplicate accept by the bound
// driver is a no-op; accepting a terminal ride fails with ErrInvalidRideState.
func (s *RideService) AcceptRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	return s.withRideLock(ctx, rideID, func(ride *domain.Ride) (*domain.Ride, error) {
		switch ride.Status {
		case domain.RideStatusAccepted:
			if driverID == "" || ride.Driver == driverID {
				// Redelivered accept: already applied.
				return ride, nil
			}
			return nil, ErrInvalidRideState

		case domain.RideStatusRequested:
			driver := driverID
			if driver == "" {
				driver = ride.Driver
			}
			if driver == "" {
				return nil, ErrInvalidDriverID
			}

			err := s.rideRepo.UpdateStatus(ctx, repository.StatusUpdate{
				RideID: rideID,
				From:   domain.RideStatusRequested,
				To:     domain.RideStatusAccepted,
				Driver: driver,
			})
			if err != nil {
				return nil, mapStaleErr(err)
			}

			ride.Status = domain.RideStatusAccepted
			ride.Driver = driver
			s.markDriverBusy(ctx, driver)
			return ride, nil

		default:
			return nil, ErrInvalidRideState
		}
	})
}

// CompleteRide transitions ACCEPTED -> COMPLETED. Any other source state,
// including a second completion, fails with ErrInvalidRideState.
func (s *RideService) CompleteRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	return s.withRideLock(ctx, rideID, func(ride *domain.Ride) (*domain.Ride, error) {
		if ride.Status != domain.RideStatusAccepted {
			return nil, ErrInvalidRideState
		}

		err := s.rideRepo.UpdateStatus(ctx, repository.StatusUpdate{
			RideID: rideID,
			From:   domain.RideStatusAccepted,
			To:     domain.RideStatusCompleted,
		})
		if err != nil {
			return nil, mapStaleErr(err)
		}

		ride.Status = domain.RideStatusCompleted
		s.markDriverFree(ctx, ride.Driver)
		return ride, nil
	})
}

// CancelRideRequest contains the parameters for cancelling a ride.
type CancelRideRequest struct {
	RideID      string
	CancelledBy domain.CancelledBy
}

// CancelRide cancels a ride from REQUESTED or ACCEPTED. The on-chain cancel
// instruction is submitted first; the local projection only moves to
// CANCELLED once that submission succeeded, so the projection never records
// a cancellation the ledger did not accept. Cancelling an already cancelled
// ride is an idempotent no-op.
func (s *RideService) CancelRide(ctx context.Context, req CancelRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.CancelledBy != domain.CancelledByRider && req.CancelledBy != domain.CancelledByDriver {
		return nil, ErrInvalidCancelledBy
	}

	return s.withRideLock(ctx, req.RideID, func(ride *domain.Ride) (*domain.Ride, error) {
		switch ride.Status {
		case domain.RideStatusCompleted:
			return nil, ErrRideAlreadyCompleted
		case domain.RideStatusCancelled:
			return ride, nil
		}

		submitCtx, cancel := context.WithTimeout(ctx, submitTimeout)
		defer cancel()

		byRider := req.CancelledBy == domain.CancelledByRider
		if err := s.submitter.SubmitCancel(submitCtx, req.RideID, byRider); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}

		err := s.rideRepo.UpdateStatus(ctx, repository.StatusUpdate{
			RideID:      req.RideID,
			From:        ride.Status,
			To:          domain.RideStatusCancelled,
			CancelledBy: req.CancelledBy,
		})
		if err != nil {
			return nil, mapStaleErr(err)
		}

		if ride.Status == domain.RideStatusAccepted {
			s.markDriverFree(ctx, ride.Driver)
		}
		ride.Status = domain.RideStatusCancelled
		ride.CancelledBy = req.CancelledBy
		return ride, nil
	})
}

// ApplyEvent folds a normalized ledger event into the projection. Each kind
// passes through the same guarded transitions as the command path, so
// out-of-order and redelivered events cannot corrupt the record. Unknown
// kinds are observed but never mutate state.
func (s *RideService) ApplyEvent(ctx context.Context, evt domain.Event) error {
	switch evt.Kind {
	case domain.EventAcceptedOnChain:
		_, err := s.AcceptRide(ctx, evt.RideID, "")
		return err

	case domain.EventCompletedOnChain:
		_, err := s.CompleteRide(ctx, evt.RideID)
		return err

	case domain.EventCancelledOnChain:
		return s.applyChainCancel(ctx, evt.RideID)

	case domain.EventUnknown:
		log.Printf("ride %s: unknown ledger event at slot %d, ignoring", evt.RideID, evt.Slot)
		return nil

	default:
		log.Printf("ride %s: unhandled event kind %q, ignoring", evt.RideID, evt.Kind)
		return nil
	}
}

// applyChainCancel records a cancellation the ledger already accepted. Unlike
// CancelRide there is nothing to submit; the chain is the source here.
func (s *RideService) applyChainCancel(ctx context.Context, rideID string) error {
	_, err := s.withRideLock(ctx, rideID, func(ride *domain.Ride) (*domain.Ride, error) {
		switch ride.Status {
		case domain.RideStatusCancelled:
			return ride, nil
		case domain.RideStatusCompleted:
			// The program forbids cancel-after-complete; a cancelled event
			// for a completed ride means the projection and ledger diverged.
			return nil, ErrInvalidRideState
		}

		err := s.rideRepo.UpdateStatus(ctx, repository.StatusUpdate{
			RideID: rideID,
			From:   ride.Status,
			To:     domain.RideStatusCancelled,
		})
		if err != nil {
			return nil, mapStaleErr(err)
		}

		if ride.Status == domain.RideStatusAccepted {
			s.markDriverFree(ctx, ride.Driver)
		}
		ride.Status = domain.RideStatusCancelled
		return ride, nil
	})
	return err
}

// withRideLock serializes a read-validate-write transition for one ride.
// Cross-ride transitions proceed in parallel; for a single ride at most one
// is in flight, so a racing event and command resolve to one winner and a
// loser that observes the post-transition state.
func (s *RideService) withRideLock(ctx context.Context, rideID string, fn func(*domain.Ride) (*domain.Ride, error)) (*domain.Ride, error) {
	if err := s.locks.WaitRideLock(ctx, rideID, rideLockTTL); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.locks.ReleaseRideLock(context.Background(), rideID); err != nil {
			log.Printf("ride %s: failed to release lock: %v", rideID, err)
		}
	}()

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	return fn(ride)
}

// markDriverBusy removes a driver from matching after an accept. Best-effort:
// a failed mirror update only degrades matching, never the transition.
func (s *RideService) markDriverBusy(ctx context.Context, driverID string) {
	if err := s.userRepo.SetAvailability(ctx, driverID, false); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("driver %s: failed to mark busy: %v", driverID, err)
	}
	if s.availability != nil {
		if err := s.availability.MarkBusy(ctx, driverID); err != nil {
			log.Printf("driver %s: failed to update availability mirror: %v", driverID, err)
		}
	}
}

// markDriverFree returns a driver to matching after a terminal transition.
func (s *RideService) markDriverFree(ctx context.Context, driverID string) {
	if driverID == "" {
		return
	}
	if err := s.userRepo.SetAvailability(ctx, driverID, true); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("driver %s: failed to mark available: %v", driverID, err)
	}
	if s.availability != nil {
		if err := s.availability.MarkAvailable(ctx, driverID); err != nil {
			log.Printf("driver %s: failed to update availability mirror: %v", driverID, err)
		}
	}
}

// mapStaleErr converts a lost compare-and-swap into the state machine's
// rejection.
func mapStaleErr(err error) error {
	if errors.Is(err, repository.ErrStaleState) {
		return ErrInvalidRideState
	}
	return err
}

func validateCreateRequest(req CreateRideRequest) error {
	if req.Rider == "" {
		return ErrInvalidRider
	}
	if !isValidLatitude(req.PickupLat) || !isValidLongitude(req.PickupLng) {
		return ErrInvalidPickupLocation
	}
	if !isValidLatitude(req.DropLat) || !isValidLongitude(req.DropLng) {
		return ErrInvalidDropLocation
	}
	return nil
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
