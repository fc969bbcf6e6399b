package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for account operations.
var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents a registered shopper. PasswordHash is an opaque bcrypt
// hash; the raw password never leaves the service layer.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	DOB          *time.Time
	Phone        string
	CreatedAt    time.Time
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	// Create persists a new user. Returns ErrEmailTaken when the email
	// uniqueness constraint is violated.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
