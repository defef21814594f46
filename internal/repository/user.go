package repository

import (
	"context"

	"rideledger/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByContact retrieves a user by contact.
	GetByContact(ctx context.Context, contact string) (*domain.User, error)

	// GetAll retrieves all users.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// FirstAvailableDriver returns one user with role DRIVER currently
	// marked available, or ErrNotFound when none exists.
	FirstAvailableDriver(ctx context.Context) (*domain.User, error)

	// SetAvailability marks a driver as available or busy.
	SetAvailability(ctx context.Context, id string, available bool) error
}
