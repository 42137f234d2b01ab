package port

import (
	"context"

	"github.com/avergin/sessionguard/internal/core/domain"
)

// PasswordHasher derives and verifies password hashes. Hashing is CPU-bound;
// implementations run it off the request goroutine, so both methods may block
// until a worker picks up the job or ctx is cancelled.
type PasswordHasher interface {
	Hash(ctx context.Context, password domain.Password) (string, error)
	Verify(ctx context.Context, password domain.Password, encodedHash string) (bool, error)
}

// TokenAuthority issues and validates signed session tokens.
type TokenAuthority interface {
	// Issue signs a token asserting the email until now+TTL.
	Issue(ctx context.Context, email domain.Email) (string, error)
	// Validate checks revocation first, then signature and expiry, in that
	// order: a revoked token must be rejected regardless of its signature or
	// expiry state. Fails with security.ErrTokenRevoked, ErrTokenInvalid, or
	// ErrTokenExpired.
	Validate(ctx context.Context, token string) (*domain.SessionClaims, error)
}
