package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rideledger/internal/domain"
	"rideledger/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

const userColumns = `id, name, contact, role, public_key, password_hash, available, created_at`

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, contact, role, public_key, password_hash, available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Contact,
		user.Role,
		user.PublicKey,
		user.PasswordHash,
		user.Available,
		user.CreatedAt,
	)
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByContact retrieves a user by contact.
func (r *UserRepository) GetByContact(ctx context.Context, contact string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE contact = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, contact))
}

// GetAll retrieves all users.
func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// FirstAvailableDriver returns one available driver. No ranking by proximity
// or rating: first row wins.
func (r *UserRepository) FirstAvailableDriver(ctx context.Context) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE role = $1 AND available ORDER BY created_at LIMIT 1
	`
	return scanUser(r.q.QueryRowContext(ctx, query, domain.UserRoleDriver))
}

// SetAvailability marks a driver as available or busy.
func (r *UserRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	result, err := r.q.ExecContext(ctx, `UPDATE users SET available = $1 WHERE id = $2`, available, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Contact,
		&user.Role,
		&user.PublicKey,
		&user.PasswordHash,
		&user.Available,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
