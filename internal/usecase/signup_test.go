package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestSignupCreatesUser(t *testing.T) {
	users := newStubUserStore()
	service := NewSignupService(users, nil, zap.NewNop())

	if err := service.Signup(context.Background(), "alice@example.com", "password123", false); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}

	rec, ok := users.users["alice@example.com"]
	if !ok {
		t.Fatalf("expected user to be stored")
	}
	if rec.requires2FA {
		t.Fatalf("expected requires2FA to be false")
	}
}

func TestSignupStoresRequires2FAFlag(t *testing.T) {
	users := newStubUserStore()
	service := NewSignupService(users, nil, zap.NewNop())

	if err := service.Signup(context.Background(), "bob@example.com", "password123", true); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}

	if !users.users["bob@example.com"].requires2FA {
		t.Fatalf("expected requires2FA to be true")
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	users := newStubUserStore()
	service := NewSignupService(users, nil, zap.NewNop())

	if err := service.Signup(context.Background(), "alice@example.com", "password123", false); err != nil {
		t.Fatalf("first Signup returned error: %v", err)
	}

	err := service.Signup(context.Background(), "alice@example.com", "otherpassword", true)
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestSignupRejectsMalformedInput(t *testing.T) {
	users := newStubUserStore()
	service := NewSignupService(users, nil, zap.NewNop())

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"missing at sign", "aliceexample.com", "password123"},
		{"empty local part", "@example.com", "password123"},
		{"trailing at sign", "alice@", "password123"},
		{"short password", "alice@example.com", "short"},
	}

	for _, tc := range cases {
		if err := service.Signup(context.Background(), tc.email, tc.password, false); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}

	if len(users.users) != 0 {
		t.Fatalf("expected no users stored, got %d", len(users.users))
	}
}
