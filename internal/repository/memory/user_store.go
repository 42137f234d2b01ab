package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/core/port"
	"github.com/avergin/sessionguard/internal/repository"
)

// UserStore keeps users in a map, for development and tests. Reads proceed in
// parallel; writes are exclusive.
type UserStore struct {
	mu     sync.RWMutex
	hasher port.PasswordHasher
	users  map[string]domain.User
}

// NewUserStore constructs an empty in-memory user store.
func NewUserStore(hasher port.PasswordHasher) *UserStore {
	return &UserStore{
		hasher: hasher,
		users:  make(map[string]domain.User),
	}
}

// Add hashes the password and stores the record.
func (s *UserStore) Add(ctx context.Context, user port.NewUser) error {
	// Hash outside the lock; it is the expensive part.
	hash, err := s.hasher.Hash(ctx, user.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := user.Email.Address()
	if _, exists := s.users[key]; exists {
		return repository.ErrAlreadyExists
	}

	s.users[key] = domain.User{
		Email:        user.Email,
		PasswordHash: hash,
		Requires2FA:  user.Requires2FA,
	}
	return nil
}

// Get returns the stored projection without the password hash.
func (s *UserStore) Get(_ context.Context, email domain.Email) (*domain.User, error) {
	s.mu.RLock()
	user, ok := s.users[email.Address()]
	s.mu.RUnlock()

	if !ok {
		return nil, repository.ErrNotFound
	}

	user.PasswordHash = ""
	return &user, nil
}

// ValidateCredentials verifies the password against the stored hash.
func (s *UserStore) ValidateCredentials(ctx context.Context, email domain.Email, password domain.Password) error {
	s.mu.RLock()
	user, ok := s.users[email.Address()]
	s.mu.RUnlock()

	if !ok {
		return repository.ErrNotFound
	}

	match, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return repository.ErrInvalidCredentials
	}
	return nil
}
