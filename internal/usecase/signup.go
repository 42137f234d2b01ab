package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/core/port"
	"github.com/avergin/sessionguard/internal/repository"
)

// ErrUserAlreadyExists indicates a signup for an email that is already taken.
var ErrUserAlreadyExists = errors.New("user already exists")

// SignupService creates user accounts.
type SignupService struct {
	users  port.UserStore
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewSignupService constructs a SignupService instance.
func NewSignupService(users port.UserStore, events port.EventPublisher, logger *zap.Logger) *SignupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignupService{
		users:  users,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Signup validates the email and password shapes and persists the new user.
// The store hashes the password; the plaintext never leaves this call path.
func (s *SignupService) Signup(ctx context.Context, rawEmail, rawPassword string, requires2FA bool) error {
	email, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return ErrInvalidInput
	}
	password, err := domain.ParsePassword(rawPassword)
	if err != nil {
		return ErrInvalidInput
	}

	newUser := port.NewUser{
		Email:       email,
		Password:    password,
		Requires2FA: requires2FA,
	}
	if err := s.users.Add(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("add user: %w", err)
	}

	s.logger.Info("user signed up",
		zap.Stringer("email", email),
		zap.Bool("requires_2fa", requires2FA),
	)

	if s.events != nil {
		event := domain.UserSignedUpEvent{
			EventID:     uuid.NewString(),
			Email:       email.Address(),
			Requires2FA: requires2FA,
			SignedUpAt:  s.now().UTC(),
		}
		if err := s.events.PublishUserSignedUp(ctx, event); err != nil {
			s.logger.Warn("publish signup event", zap.Error(err))
		}
	}

	return nil
}
