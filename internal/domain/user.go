package domain

import "time"

// UserRole distinguishes riders from drivers.
type UserRole string

const (
	UserRoleDriver UserRole = "DRIVER"
	UserRoleRider  UserRole = "RIDER"
)

// User represents a registered identity. Credential handling (hashing,
// verification) happens at the edge; the core only consults role and
// availability when matching.
type User struct {
	ID           string
	Name         string
	Contact      string
	Role         UserRole
	PublicKey    string
	PasswordHash string
	Available    bool // drivers only: eligible for matching
	CreatedAt    time.Time
}
