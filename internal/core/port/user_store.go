package port

import (
	"context"

	"github.com/avergin/sessionguard/internal/core/domain"
)

// NewUser is the input for UserStore.Add. The plaintext password is hashed by
// the store via its PasswordHasher and never persisted.
type NewUser struct {
	Email       domain.Email
	Password    domain.Password
	Requires2FA bool
}

// UserStore exposes persistence behavior for user credentials. Implementations
// report repository.ErrAlreadyExists, repository.ErrNotFound, and
// repository.ErrInvalidCredentials for the documented failure cases; any other
// error is treated as an unexpected backend failure.
type UserStore interface {
	// Add hashes the password and persists the record. Fails with
	// ErrAlreadyExists when the email is taken.
	Add(ctx context.Context, user NewUser) error
	// Get returns the stored projection for the email. The password hash is
	// not exposed; only ValidateCredentials consumes it.
	Get(ctx context.Context, email domain.Email) (*domain.User, error)
	// ValidateCredentials verifies the password against the stored hash.
	// Fails with ErrNotFound when no such user exists and
	// ErrInvalidCredentials on mismatch.
	ValidateCredentials(ctx context.Context, email domain.Email, password domain.Password) error
}
