package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/repository"
)

func mustEmail(t *testing.T, raw string) domain.Email {
	t.Helper()

	email, err := domain.ParseEmail(raw)
	if err != nil {
		t.Fatalf("ParseEmail(%q) returned error: %v", raw, err)
	}
	return email
}

func newChallenge(t *testing.T) domain.Challenge {
	t.Helper()

	code, err := domain.NewTwoFACode()
	if err != nil {
		t.Fatalf("NewTwoFACode returned error: %v", err)
	}
	return domain.Challenge{AttemptID: domain.NewAttemptID(), Code: code}
}

func TestChallengeStorePutGetRemove(t *testing.T) {
	store := NewChallengeStore(10 * time.Minute)
	email := mustEmail(t, "bob@example.com")
	challenge := newChallenge(t)

	if err := store.Put(context.Background(), email, challenge); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, err := store.Get(context.Background(), email)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.AttemptID.Equal(challenge.AttemptID) || !got.Code.Equal(challenge.Code) {
		t.Fatalf("stored challenge does not round-trip")
	}

	if err := store.Remove(context.Background(), email); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}

	if _, err := store.Get(context.Background(), email); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
}

func TestChallengeStoreReplacesOnPut(t *testing.T) {
	store := NewChallengeStore(10 * time.Minute)
	email := mustEmail(t, "bob@example.com")

	first := newChallenge(t)
	second := newChallenge(t)

	if err := store.Put(context.Background(), email, first); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Put(context.Background(), email, second); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, err := store.Get(context.Background(), email)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.AttemptID.Equal(second.AttemptID) {
		t.Fatalf("expected second challenge to win")
	}
}

func TestChallengeStoreExpiry(t *testing.T) {
	store := NewChallengeStore(10 * time.Minute)
	email := mustEmail(t, "bob@example.com")

	now := time.Now()
	store.WithClock(func() time.Time { return now })

	if err := store.Put(context.Background(), email, newChallenge(t)); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	now = now.Add(9 * time.Minute)
	if _, err := store.Get(context.Background(), email); err != nil {
		t.Fatalf("Get before expiry returned error: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(context.Background(), email); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
	if err := store.Remove(context.Background(), email); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound removing expired challenge, got %v", err)
	}
}

func TestChallengeStoreRemoveMissing(t *testing.T) {
	store := NewChallengeStore(10 * time.Minute)

	err := store.Remove(context.Background(), mustEmail(t, "nobody@example.com"))
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChallengeStoreIsolatesEmails(t *testing.T) {
	store := NewChallengeStore(10 * time.Minute)
	bob := mustEmail(t, "bob@example.com")
	carol := mustEmail(t, "carol@example.com")

	bobChallenge := newChallenge(t)
	carolChallenge := newChallenge(t)

	if err := store.Put(context.Background(), bob, bobChallenge); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Put(context.Background(), carol, carolChallenge); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if err := store.Remove(context.Background(), bob); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}

	got, err := store.Get(context.Background(), carol)
	if err != nil {
		t.Fatalf("carol's challenge should survive bob's removal: %v", err)
	}
	if !got.AttemptID.Equal(carolChallenge.AttemptID) {
		t.Fatalf("unexpected challenge for carol")
	}
}
