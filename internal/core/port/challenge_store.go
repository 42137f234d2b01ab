package port

import (
	"context"

	"github.com/avergin/sessionguard/internal/core/domain"
)

// ChallengeStore holds at most one outstanding 2FA challenge per email.
type ChallengeStore interface {
	// Put stores the challenge with the configured TTL, unconditionally
	// replacing any previous challenge for the email.
	Put(ctx context.Context, email domain.Email, challenge domain.Challenge) error
	// Get returns the unexpired challenge for the email, or
	// repository.ErrNotFound.
	Get(ctx context.Context, email domain.Email) (*domain.Challenge, error)
	// Remove deletes the challenge, enforcing single use. Removing an absent
	// or expired challenge fails with repository.ErrNotFound.
	Remove(ctx context.Context, email domain.Email) error
}
