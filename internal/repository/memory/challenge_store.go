package memory

import (
	"context"
	"sync"
	"time"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/repository"
)

type challengeEntry struct {
	challenge domain.Challenge
	expiresAt time.Time
}

// ChallengeStore keeps 2FA challenges in a map with lazy expiry.
type ChallengeStore struct {
	mu      sync.RWMutex
	entries map[string]challengeEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewChallengeStore constructs an in-memory challenge store with the given TTL.
func NewChallengeStore(ttl time.Duration) *ChallengeStore {
	return &ChallengeStore{
		entries: make(map[string]challengeEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *ChallengeStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Put stores the challenge, replacing any previous one for the email.
func (s *ChallengeStore) Put(_ context.Context, email domain.Email, challenge domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[email.Address()] = challengeEntry{
		challenge: challenge,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Get returns the unexpired challenge for the email.
func (s *ChallengeStore) Get(_ context.Context, email domain.Email) (*domain.Challenge, error) {
	s.mu.RLock()
	entry, ok := s.entries[email.Address()]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return nil, repository.ErrNotFound
	}

	challenge := entry.challenge
	return &challenge, nil
}

// Remove deletes the challenge for the email.
func (s *ChallengeStore) Remove(_ context.Context, email domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.Address()
	entry, ok := s.entries[key]
	if !ok {
		return repository.ErrNotFound
	}

	delete(s.entries, key)
	if s.now().After(entry.expiresAt) {
		return repository.ErrNotFound
	}
	return nil
}
