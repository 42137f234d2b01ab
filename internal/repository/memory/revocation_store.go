package memory

import (
	"context"
	"sync"
	"time"
)

type revocationEntry struct {
	expiresAt time.Time
}

// RevocationStore keeps revoked tokens in a set with lazy expiry. Entries
// never outlive the token they revoke.
type RevocationStore struct {
	mu      sync.RWMutex
	entries map[string]revocationEntry
	now     func() time.Time
}

// NewRevocationStore constructs an empty in-memory revocation set.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{
		entries: make(map[string]revocationEntry),
		now:     time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *RevocationStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Add records the token as revoked until its natural expiry. Re-adding an
// already revoked token succeeds and extends nothing beyond the longer TTL.
func (s *RevocationStore) Add(_ context.Context, token string, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[token]; ok && existing.expiresAt.After(expiresAt) {
		return nil
	}
	s.entries[token] = revocationEntry{expiresAt: expiresAt}
	return nil
}

// Contains reports whether the token is currently revoked. Expired entries
// are dropped on read.
func (s *RevocationStore) Contains(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, token)
		return false, nil
	}
	return true, nil
}
