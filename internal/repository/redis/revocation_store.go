package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
)

const defaultRevocationPrefix = "revoked"

// RevocationStore tracks revoked session tokens in Redis. Keys carry the
// SHA-256 of the token rather than the token itself. Entries expire together
// with the token they revoke.
type RevocationStore struct {
	client *red.Client
	prefix string
}

// NewRevocationStore wires a Redis client into a revocation store.
func NewRevocationStore(client *red.Client, keyPrefix string) *RevocationStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}

	return &RevocationStore{client: client, prefix: prefix}
}

// Add records the token as revoked. Re-adding overwrites the existing entry.
func (s *RevocationStore) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	if err := s.client.Set(ctx, s.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked token: %w", err)
	}
	return nil
}

// Contains reports whether the token has been revoked.
func (s *RevocationStore) Contains(ctx context.Context, token string) (bool, error) {
	err := s.client.Get(ctx, s.key(token)).Err()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get revoked token: %w", err)
	}
	return true, nil
}

func (s *RevocationStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s:%s", s.prefix, hex.EncodeToString(sum[:]))
}
