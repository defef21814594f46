package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rideledger/internal/domain"
	"rideledger/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, rider, driver, pickup_lat, pickup_lng, drop_lat, drop_lng, distance_km, fare, status, cancelled_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var driver sql.NullString
	if ride.Driver != "" {
		driver = sql.NullString{String: ride.Driver, Valid: true}
	}

	var cancelledBy sql.NullString
	if ride.CancelledBy != "" {
		cancelledBy = sql.NullString{String: string(ride.CancelledBy), Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.Rider,
		driver,
		ride.PickupLat,
		ride.PickupLng,
		ride.DropLat,
		ride.DropLng,
		ride.DistanceKm,
		ride.Fare,
		ride.Status,
		cancelledBy,
		ride.CreatedAt,
		ride.UpdatedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `
		SELECT id, rider, driver, pickup_lat, pickup_lng, drop_lat, drop_lng, distance_km, fare, status, cancelled_by, created_at, updated_at
		FROM rides WHERE id = $1
	`

	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves recent rides.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `
		SELECT id, rider, driver, pickup_lat, pickup_lng, drop_lat, drop_lng, distance_km, fare, status, cancelled_by, created_at, updated_at
		FROM rides ORDER BY created_at DESC LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// UpdateStatus applies a guarded status transition. The WHERE clause pins the
// expected source status, so a concurrent transition that already moved the
// ride leaves this write with zero affected rows.
func (r *RideRepository) UpdateStatus(ctx context.Context, upd repository.StatusUpdate) error {
	query := `
		UPDATE rides
		SET status = $1,
		    driver = COALESCE(NULLIF($2, ''), driver),
		    cancelled_by = COALESCE(NULLIF($3, ''), cancelled_by),
		    updated_at = NOW()
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		upd.To,
		upd.Driver,
		string(upd.CancelledBy),
		upd.RideID,
		upd.From,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a missing ride from a lost CAS.
	if _, err := r.GetByID(ctx, upd.RideID); err != nil {
		return err
	}
	return repository.ErrStaleState
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driver sql.NullString
	var cancelledBy sql.NullString

	err := row.Scan(
		&ride.ID,
		&ride.Rider,
		&driver,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.DropLat,
		&ride.DropLng,
		&ride.DistanceKm,
		&ride.Fare,
		&ride.Status,
		&cancelledBy,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if driver.Valid {
		ride.Driver = driver.String
	}
	if cancelledBy.Valid {
		ride.CancelledBy = domain.CancelledBy(cancelledBy.String)
	}

	return &ride, nil
}
