package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"rideledger/internal/domain"
	"rideledger/internal/service"
)

// ──────────────────────────────────────────────
// LIFECYCLE TRANSITIONS
// ──────────────────────────────────────────────

func seedRide(rideRepo *MockRideRepository, id string, status domain.RideStatus, driver string) {
	now := time.Now()
	rideRepo.AddRide(&domain.Ride{
		ID:        id,
		Rider:     "rider-1",
		Driver:    driver,
		Fare:      120,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func TestAcceptRide_FromRequested_BindsDriver(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "driver-1", Role: domain.UserRoleDriver, Available: true})
	seedRide(rideRepo, "ride-1", domain.RideStatusRequested, "driver-1")

	rideService := newRideService(rideRepo, userRepo, NewMockMatcher(nil), NewMockSubmitter())

	ride, err := rideService.AcceptRide(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if ride.Status != domain.RideStatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", ride.Status)
	}
	if ride.Driver != "driver-1" {
		t.Errorf("expected driver-1 bound, got %q", ride.Driver)
	}
	if stored := rideRepo.GetRide("ride-1"); stored.Status != domain.RideStatusAccepted {
		t.Errorf("expected ACCEPTED persisted, got %s", stored.Status)
	}
	if userRepo.GetUser("driver-1").Available {
		t.Error("expected accepting driver to be marked busy")
	}
}

func TestAcceptRide_DuplicateByBoundDriver_IsNoOp(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedRide(rideRepo, "ride-1", domain.RideStatusAccepted, "driver-1")

	rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), NewMockSubmitter())

	ride, err := rideService.AcceptRide(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("expected duplicate accept to be a no-op, got: %v", err)
	}
	if ride.Status != domain.RideStatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", ride.Status)
	}
	if rideRepo.UpdateStatusCallCount != 0 {
		t.Errorf("expected no status write for duplicate accept, got %d", rideRepo.UpdateStatusCallCount)
	}
}

func TestAcceptRide_ByDifferentDriver_Rejected(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedRide(rideRepo, "ride-1", domain.RideStatusAccepted, "driver-1")

	rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), NewMockSubmitter())

	_, err := rideService.AcceptRide(context.Background(), "ride-1", "driver-2")
	if !errors.Is(err, service.ErrInvalidRideState) {
		t.Fatalf("expected ErrInvalidRideState, got: %v", err)
	}
	if stored := rideRepo.GetRide("ride-1"); stored.Driver != "driver-1" {
		t.Errorf("expected bound driver unchanged, got %q", stored.Driver)
	}
}

func TestAcceptRide_OnTerminalRide_Rejected(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.RideStatus{domain.RideStatusCompleted, domain.RideStatusCancelled} {
		status := status
		t.Run(string(status), func(t *testing.T) {
			t.Parallel()

			rideRepo := NewMockRideRepository()
			seedRide(rideRepo, "ride-1", status, "driver-1")

			rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), NewMockSubmitter())

			_, err := rideService.AcceptRide(context.Background(), "ride-1", "driver-1")
			if !errors.Is(err, service.ErrInvalidRideState) {
				t.Fatalf("expected ErrInvalidRideState, got: %v", err)
			}
			if stored := rideRepo.GetRide("ride-1"); stored.Status != status {
				t.Errorf("expected status unchanged, got %s", stored.Status)
			}
		})
	}
}

func TestAcceptRide_UnknownRide_NotFound(t *testing.T) {
	t.Parallel()

	rideService := newRideService(NewMockRideRepository(), NewMockUserRepository(), NewMockMatcher(nil), NewMockSubmitter())

	_, err := rideService.AcceptRide(context.Background(), "missing", "driver-1")
	if err == nil {
		t.Fatal("expected an error for an unknown ride")
	}
}

func TestCompleteRide_FromAccepted_Succeeds(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "driver-1", Role: domain.UserRoleDriver, Available: false})
	seedRide(rideRepo, "ride-1", domain.RideStatusAccepted, "driver-1")

	rideService := newRideService(rideRepo, userRepo, NewMockMatcher(nil), NewMockSubmitter())

	ride, err := rideService.CompleteRide(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if ride.Status != domain.RideStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", ride.Status)
	}
	if !userRepo.GetUser("driver-1").Available {
		t.Error("expected driver to be freed after completion")
	}
}

func TestCompleteRide_Twice_Rejected(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedRide(rideRepo, "ride-1", domain.RideStatusAccepted, "driver-1")

	rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), NewMockSubmitter())

	if _, err := rideService.CompleteRide(context.Background(), "ride-1"); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	_, err := rideService.CompleteRide(context.Background(), "ride-1")
	if !errors.Is(err, service.ErrInvalidRideState) {
		t.Fatalf("expected ErrInvalidRideState on double completion, got: %v", err)
	}
}

func TestCompleteRide_FromRequested_Rejected(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedRide(rideRepo, "ride-1", domain.RideStatusRequested, "driver-1")

	rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), NewMockSubmitter())

	_, err := rideService.CompleteRide(context.Background(), "ride-1")
	if !errors.Is(err, service.ErrInvalidRideState) {
		t.Fatalf("expected ErrInvalidRideState, got: %v", err)
	}
}

// ──────────────────────────────────────────────
// CANCELLATION
// ──────────────────────────────────────────────

func TestCancelRide_FromRequested_SubmitsThenCancels(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	submitter := NewMockSubmitter()
	seedRide(rideRepo, "ride-1", domain.RideStatusRequested, "driver-1")

	rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), submitter)

	ride, err := rideService.CancelRide(context.Background(), service.CancelRideRequest{
		RideID:      "ride-1",
		CancelledBy: domain.CancelledByRider,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if ride.Status != domain.RideStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", ride.Status)
	}
	if ride.CancelledBy != domain.CancelledByRider {
		t.Errorf("expected cancelledBy=rider, got %q", ride.CancelledBy)
	}
	if submitter.SubmitCallCount != 1 {
		t.Errorf("expected 1 submission, got %d", submitter.SubmitCallCount)
	}
	if !submitter.LastByRider {
		t.Error("expected submission flagged as rider-initiated")
	}
}

func TestCancelRide_FromAccepted_FreesDriver(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "driver-1", Role: domain.UserRoleDriver, Available: false})
	seedRide(rideRepo, "ride-1", domain.RideStatusAccepted, "driver-1")

	rideService := newRideService(rideRepo, userRepo, NewMockMatcher(nil), NewMockSubmitter())

	ride, err := rideService.CancelRide(context.Background(), service.CancelRideRequest{
		RideID:      "ride-1",
		CancelledBy: domain.CancelledByDriver,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if ride.Status != domain.RideStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", ride.Status)
	}
	if !userRepo.GetUser("driver-1").Available {
		t.Error("expected driver to be freed after cancellation from ACCEPTED")
	}
}

func TestCancelRide_CompletedRide_Rejected(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	submitter := NewMockSubmitter()
	seedRide(rideRepo, "ride-1", domain.RideStatusCompleted, "driver-1")

	rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), submitter)

	_, err := rideService.CancelRide(context.Background(), service.CancelRideRequest{
		RideID:      "ride-1",
		CancelledBy: domain.CancelledByRider,
	})
	if !errors.Is(err, service.ErrRideAlreadyCompleted) {
		t.Fatalf("expected ErrRideAlreadyCompleted, got: %v", err)
	}
	if submitter.SubmitCallCount != 0 {
		t.Errorf("expected no submission for a completed ride, got %d", submitter.SubmitCallCount)
	}
	if stored := rideRepo.GetRide("ride-1"); stored.Status != domain.RideStatusCompleted {
		t.Errorf("expected status unchanged, got %s", stored.Status)
	}
}

func TestCancelRide_AlreadyCancelled_IsNoOp(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	submitter := NewMockSubmitter()
	seedRide(rideRepo, "ride-1", domain.RideStatusCancelled, "driver-1")

	rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), submitter)

	ride, err := rideService.CancelRide(context.Background(), service.CancelRideRequest{
		RideID:      "ride-1",
		CancelledBy: domain.CancelledByRider,
	})
	if err != nil {
		t.Fatalf("expected idempotent re-cancel, got: %v", err)
	}
	if ride.Status != domain.RideStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", ride.Status)
	}
	if submitter.SubmitCallCount != 0 {
		t.Errorf("expected no resubmission, got %d", submitter.SubmitCallCount)
	}
}

func TestCancelRide_SubmissionFailure_LeavesProjectionUntouched(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	submitter := NewMockSubmitter()
	submitter.SubmitError = errors.New("bridge unreachable")
	seedRide(rideRepo, "ride-1", domain.RideStatusRequested, "driver-1")

	rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), submitter)

	_, err := rideService.CancelRide(context.Background(), service.CancelRideRequest{
		RideID:      "ride-1",
		CancelledBy: domain.CancelledByRider,
	})
	if !errors.Is(err, service.ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got: %v", err)
	}
	if submitter.SubmitCallCount != 1 {
		t.Errorf("expected exactly 1 submission attempt, got %d", submitter.SubmitCallCount)
	}
	if stored := rideRepo.GetRide("ride-1"); stored.Status != domain.RideStatusRequested {
		t.Errorf("expected status unchanged after failed submission, got %s", stored.Status)
	}
	if rideRepo.UpdateStatusCallCount != 0 {
		t.Errorf("expected no local writes after failed submission, got %d", rideRepo.UpdateStatusCallCount)
	}
}

func TestCancelRide_InvalidCancelledBy_Rejected(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedRide(rideRepo, "ride-1", domain.RideStatusRequested, "driver-1")

	rideService := newRideService(rideRepo, NewMockUserRepository(), NewMockMatcher(nil), NewMockSubmitter())

	_, err := rideService.CancelRide(context.Background(), service.CancelRideRequest{
		RideID:      "ride-1",
		CancelledBy: "operator",
	})
	if !errors.Is(err, service.ErrInvalidCancelledBy) {
		t.Fatalf("expected ErrInvalidCancelledBy, got: %v", err)
	}
}

// ──────────────────────────────────────────────
// STATE MACHINE
// ──────────────────────────────────────────────

func TestRideStatus_TransitionMatrix(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		from    domain.RideStatus
		to      domain.RideStatus
		allowed bool
	}{
		{domain.RideStatusRequested, domain.RideStatusAccepted, true},
		{domain.RideStatusRequested, domain.RideStatusCancelled, true},
		{domain.RideStatusRequested, domain.RideStatusCompleted, false},
		{domain.RideStatusAccepted, domain.RideStatusCompleted, true},
		{domain.RideStatusAccepted, domain.RideStatusCancelled, true},
		{domain.RideStatusAccepted, domain.RideStatusRequested, false},
		{domain.RideStatusCompleted, domain.RideStatusCancelled, false},
		{domain.RideStatusCompleted, domain.RideStatusAccepted, false},
		{domain.RideStatusCancelled, domain.RideStatusAccepted, false},
		{domain.RideStatusCancelled, domain.RideStatusCompleted, false},
	}

	for _, tc := range testCases {
		got := tc.from.CanTransitionTo(tc.to)
		if got != tc.allowed {
			t.Errorf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}

	if !domain.RideStatusCompleted.Terminal() || !domain.RideStatusCancelled.Terminal() {
		t.Error("expected COMPLETED and CANCELLED to be terminal")
	}
	if domain.RideStatusRequested.Terminal() || domain.RideStatusAccepted.Terminal() {
		t.Error("expected REQUESTED and ACCEPTED to be non-terminal")
	}
}
