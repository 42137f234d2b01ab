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
	"github.com/avergin/sessionguard/internal/infra/security"
	"github.com/avergin/sessionguard/internal/repository"
)

var (
	// ErrInvalidInput indicates a syntactically malformed email, password,
	// attempt id, or code. Reported distinctly from authentication failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIncorrectCredentials covers every authentication failure: wrong
	// password, unknown email, wrong or expired challenge. Callers cannot
	// probe which check failed.
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	// ErrInvalidToken indicates the token is revoked, malformed, or expired.
	ErrInvalidToken = errors.New("invalid token")
)

const twoFASubject = "Your verification code"

// LoginResult is returned by AuthService.Login. Either Token is set, or
// TwoFARequired is true and AttemptID correlates the follow-up Verify2FA
// call. The challenge code itself never appears here.
type LoginResult struct {
	Token         string
	TwoFARequired bool
	AttemptID     string
}

// AuthService coordinates the login, 2FA verification, logout, and token
// verification flows over the pluggable stores.
type AuthService struct {
	users      port.UserStore
	challenges port.ChallengeStore
	revoked    port.RevocationStore
	tokens     port.TokenAuthority
	notifier   port.Notifier
	events     port.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserStore,
	challenges port.ChallengeStore,
	revoked port.RevocationStore,
	tokens port.TokenAuthority,
	notifier port.Notifier,
	events port.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		challenges: challenges,
		revoked:    revoked,
		tokens:     tokens,
		notifier:   notifier,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Login validates credentials and either issues a session token directly or
// opens a 2FA challenge, depending on the user's requires-2FA flag.
func (s *AuthService) Login(ctx context.Context, rawEmail, rawPassword string) (*LoginResult, error) {
	email, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return nil, ErrInvalidInput
	}
	password, err := domain.ParsePassword(rawPassword)
	if err != nil {
		return nil, ErrInvalidInput
	}

	if err := s.users.ValidateCredentials(ctx, email, password); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidCredentials) {
			return nil, ErrIncorrectCredentials
		}
		return nil, fmt.Errorf("validate credentials: %w", err)
	}

	user, err := s.users.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIncorrectCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.Requires2FA {
		return s.openChallenge(ctx, email)
	}

	token, err := s.tokens.Issue(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.publishLoggedIn(ctx, email, false)

	return &LoginResult{Token: token}, nil
}

// openChallenge creates a fresh challenge for the email, replacing any
// outstanding one, and delivers the code through the notifier. A delivery
// failure fails the login attempt; the stored challenge simply expires unused.
func (s *AuthService) openChallenge(ctx context.Context, email domain.Email) (*LoginResult, error) {
	attemptID := domain.NewAttemptID()
	code, err := domain.NewTwoFACode()
	if err != nil {
		return nil, fmt.Errorf("generate challenge: %w", err)
	}

	challenge := domain.Challenge{AttemptID: attemptID, Code: code}
	if err := s.challenges.Put(ctx, email, challenge); err != nil {
		return nil, fmt.Errorf("store challenge: %w", err)
	}

	if err := s.notifier.Send(ctx, email, twoFASubject, code.Reveal()); err != nil {
		return nil, fmt.Errorf("deliver challenge code: %w", err)
	}

	s.logger.Info("2fa challenge issued",
		zap.Stringer("email", email),
		zap.String("attempt_id", attemptID.String()),
	)
	s.publishChallengeIssued(ctx, email, attemptID)

	return &LoginResult{TwoFARequired: true, AttemptID: attemptID.String()}, nil
}

// Verify2FA completes a pending challenge and issues a session token. The
// challenge is removed before issuance, so a code can never be redeemed twice;
// the remove-then-issue pair is not atomic, and a failure between the two
// steps consumes the code without producing a token. Recovery is a fresh
// login.
func (s *AuthService) Verify2FA(ctx context.Context, rawEmail, rawAttemptID, rawCode string) (string, error) {
	email, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return "", ErrInvalidInput
	}
	attemptID, err := domain.ParseAttemptID(rawAttemptID)
	if err != nil {
		return "", ErrInvalidInput
	}
	code, err := domain.ParseTwoFACode(rawCode)
	if err != nil {
		return "", ErrInvalidInput
	}

	stored, err := s.challenges.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// "No challenge" reads the same as "wrong challenge".
			return "", ErrIncorrectCredentials
		}
		return "", fmt.Errorf("fetch challenge: %w", err)
	}

	if !stored.AttemptID.Equal(attemptID) || !stored.Code.Equal(code) {
		return "", ErrIncorrectCredentials
	}

	if err := s.challenges.Remove(ctx, email); err != nil {
		return "", fmt.Errorf("remove challenge: %w", err)
	}

	token, err := s.tokens.Issue(ctx, email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.publishLoggedIn(ctx, email, true)

	return token, nil
}

// Logout revokes the token for the remainder of its lifetime. The token is
// validated first: revoking an already-invalid token fails, so a second
// logout with the same token deterministically fails instead of silently
// succeeding.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.VerifyToken(ctx, token)
	if err != nil {
		return err
	}

	remaining := claims.Remaining(s.now())
	if remaining <= 0 {
		return ErrInvalidToken
	}

	if err := s.revoked.Add(ctx, token, remaining); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	if s.events != nil {
		event := domain.TokenRevokedEvent{
			EventID:   uuid.NewString(),
			Subject:   claims.Subject,
			ExpiresAt: claims.ExpiresAt,
			RevokedAt: s.now().UTC(),
		}
		if err := s.events.PublishTokenRevoked(ctx, event); err != nil {
			s.logger.Warn("publish token revoked event", zap.Error(err))
		}
	}

	return nil
}

// VerifyToken validates the token without mutating any state. Revoked, bad
// signature, and expired all surface as ErrInvalidToken so the boundary
// reveals nothing about which check tripped.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.SessionClaims, error) {
	claims, err := s.tokens.Validate(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenRevoked),
			errors.Is(err, security.ErrTokenInvalid),
			errors.Is(err, security.ErrTokenExpired):
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("validate token: %w", err)
	}
	return claims, nil
}

func (s *AuthService) publishLoggedIn(ctx context.Context, email domain.Email, via2FA bool) {
	if s.events == nil {
		return
	}
	event := domain.UserLoggedInEvent{
		EventID:    uuid.NewString(),
		Email:      email.Address(),
		Via2FA:     via2FA,
		LoggedInAt: s.now().UTC(),
	}
	if err := s.events.PublishUserLoggedIn(ctx, event); err != nil {
		s.logger.Warn("publish login event", zap.Error(err))
	}
}

func (s *AuthService) publishChallengeIssued(ctx context.Context, email domain.Email, attemptID domain.AttemptID) {
	if s.events == nil {
		return
	}
	event := domain.ChallengeIssuedEvent{
		EventID:   uuid.NewString(),
		Email:     email.Address(),
		AttemptID: attemptID.String(),
		IssuedAt:  s.now().UTC(),
	}
	if err := s.events.PublishChallengeIssued(ctx, event); err != nil {
		s.logger.Warn("publish challenge event", zap.Error(err))
	}
}
