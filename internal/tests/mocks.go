package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"rideledger/internal/domain"
	"rideledger/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRideRepository) UpdateStatus(ctx context.Context, upd repository.StatusUpdate) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[upd.RideID]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.Status != upd.From {
		return repository.ErrStaleState
	}
	ride.Status = upd.To
	if upd.Driver != "" {
		ride.Driver = upd.Driver
	}
	if upd.CancelledBy != "" {
		ride.CancelledBy = upd.CancelledBy
	}
	ride.UpdatedAt = time.Now()
	return nil
}

// GetRide returns the ride by ID (for test assertions).
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// CountRides returns the number of rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	order []string

	// Counters for verification
	SetAvailabilityCallCount int32

	// Error injection
	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	m.order = append(m.order, user.ID)
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddUser(user)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByContact(ctx context.Context, contact string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Contact == contact {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, id := range m.order {
		copy := *m.users[id]
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockUserRepository) FirstAvailableDriver(ctx context.Context) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		u := m.users[id]
		if u.Role == domain.UserRoleDriver && u.Available {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	atomic.AddInt32(&m.SetAvailabilityCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Available = available
	return nil
}

// GetUser returns a user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of the per-ride lock store.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters
	AcquireCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[rideID] {
		return false, nil
	}
	m.locks[rideID] = true
	return true, nil
}

func (m *MockLockStore) WaitRideLock(ctx context.Context, rideID string, ttl time.Duration) error {
	for {
		ok, err := m.AcquireRideLock(ctx, rideID, ttl)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, rideID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK AVAILABILITY STORE
// ──────────────────────────────────────────────

// MockAvailabilityStore is an in-memory driver availability mirror.
type MockAvailabilityStore struct {
	mu      sync.Mutex
	drivers map[string]bool
}

// NewMockAvailabilityStore creates a new mock availability store.
func NewMockAvailabilityStore() *MockAvailabilityStore {
	return &MockAvailabilityStore{
		drivers: make(map[string]bool),
	}
}

func (m *MockAvailabilityStore) MarkAvailable(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driverID] = true
	return nil
}

func (m *MockAvailabilityStore) MarkBusy(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, driverID)
	return nil
}

func (m *MockAvailabilityStore) Candidates(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.drivers))
	for id := range m.drivers {
		result = append(result, id)
	}
	return result, nil
}

// IsAvailable checks the mirror for test assertions.
func (m *MockAvailabilityStore) IsAvailable(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drivers[driverID]
}

// ──────────────────────────────────────────────
// MOCK LEDGER SUBMITTER
// ──────────────────────────────────────────────

// MockSubmitter is a mock ledger command submitter.
type MockSubmitter struct {
	mu sync.Mutex

	// Control behavior
	SubmitError error

	// Counters and captured arguments
	SubmitCallCount int32
	LastRideID      string
	LastByRider     bool
}

// NewMockSubmitter creates a new mock submitter.
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{}
}

func (m *MockSubmitter) SubmitCancel(ctx context.Context, rideID string, byRider bool) error {
	atomic.AddInt32(&m.SubmitCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubmitError != nil {
		return m.SubmitError
	}
	m.LastRideID = rideID
	m.LastByRider = byRider
	return nil
}

// ──────────────────────────────────────────────
// MOCK MATCHER
// ──────────────────────────────────────────────

// MockMatcher is a mock driver matcher.
type MockMatcher struct {
	Driver   *domain.User
	MatchErr error
}

// NewMockMatcher creates a matcher that always returns the given driver.
func NewMockMatcher(driver *domain.User) *MockMatcher {
	return &MockMatcher{Driver: driver}
}

func (m *MockMatcher) Match(ctx context.Context) (*domain.User, error) {
	if m.MatchErr != nil {
		return nil, m.MatchErr
	}
	if m.Driver == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.Driver
	return &copy, nil
}
