package port

import (
	"context"
	"time"
)

// RevocationStore tracks tokens that must be rejected even when otherwise
// valid. Entries expire together with the token they revoke. Re-adding an
// already revoked token succeeds.
type RevocationStore interface {
	// Add records the token as revoked for the remaining token lifetime.
	Add(ctx context.Context, token string, ttl time.Duration) error
	// Contains reports whether the token has been revoked and not yet
	// expired. It never returns a false negative for a live entry.
	Contains(ctx context.Context, token string) (bool, error)
}
