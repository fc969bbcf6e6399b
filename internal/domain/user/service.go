package user

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 12
	minPasswordLength = 6
)

// InvalidPasswordError indicates the supplied password does not meet the
// minimum requirements.
type InvalidPasswordError struct {
	MinLength int
}

func (e *InvalidPasswordError) Error() string {
	return fmt.Sprintf("password must be at least %d characters", e.MinLength)
}

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	DOB      *time.Time
	Phone    string
}

// Service encapsulates account registration and credential verification.
type Service struct {
	users Repository
}

// NewService creates a user Service backed by the given repository.
func NewService(users Repository) *Service {
	return &Service{users: users}
}

// Register creates a new account with a bcrypt-hashed password. The email
// must be unique; violations surface as ErrEmailTaken.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Name == "" || req.Email == "" {
		return nil, errors.New("name and email required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, &InvalidPasswordError{MinLength: minPasswordLength}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		DOB:          req.DOB,
		Phone:        req.Phone,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "create user")
	}

	return u, nil
}

// Authenticate verifies an email/password pair and returns the matching
// user. Unknown emails and wrong passwords are indistinguishable to the
// caller: both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "get user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
