package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/repository"
)

const defaultChallengePrefix = "2fa"

// challengeTuple is the stored JSON shape: attempt id and code.
type challengeTuple struct {
	AttemptID string `json:"attempt_id"`
	Code      string `json:"code"`
}

// ChallengeStore persists 2FA challenges in Redis, one key per email, expiring
// with the configured TTL.
type ChallengeStore struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewChallengeStore wires a Redis client into a challenge store.
func NewChallengeStore(client *red.Client, keyPrefix string, ttl time.Duration) *ChallengeStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultChallengePrefix
	}

	return &ChallengeStore{client: client, prefix: prefix, ttl: ttl}
}

// Put stores the challenge under the email key, replacing any previous value.
func (s *ChallengeStore) Put(ctx context.Context, email domain.Email, challenge domain.Challenge) error {
	payload, err := json.Marshal(challengeTuple{
		AttemptID: challenge.AttemptID.String(),
		Code:      challenge.Code.Reveal(),
	})
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}

	if err := s.client.Set(ctx, s.key(email), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set challenge: %w", err)
	}
	return nil
}

// Get returns the stored challenge for the email.
func (s *ChallengeStore) Get(ctx context.Context, email domain.Email) (*domain.Challenge, error) {
	raw, err := s.client.Get(ctx, s.key(email)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get challenge: %w", err)
	}

	var tuple challengeTuple
	if err := json.Unmarshal([]byte(raw), &tuple); err != nil {
		return nil, fmt.Errorf("unmarshal challenge: %w", err)
	}

	attemptID, err := domain.ParseAttemptID(tuple.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("stored attempt id: %w", err)
	}
	code, err := domain.ParseTwoFACode(tuple.Code)
	if err != nil {
		return nil, fmt.Errorf("stored code: %w", err)
	}

	return &domain.Challenge{AttemptID: attemptID, Code: code}, nil
}

// Remove deletes the challenge, enforcing single-use semantics.
func (s *ChallengeStore) Remove(ctx context.Context, email domain.Email) error {
	deleted, err := s.client.Del(ctx, s.key(email)).Result()
	if err != nil {
		return fmt.Errorf("redis delete challenge: %w", err)
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *ChallengeStore) key(email domain.Email) string {
	return fmt.Sprintf("%s:%s", s.prefix, email.Address())
}
