package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/core/port"
	"github.com/avergin/sessionguard/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserSignedUp logs user.signed_up events.
func (p *StubPublisher) PublishUserSignedUp(_ context.Context, event domain.UserSignedUpEvent) error {
	payload := map[string]any{
		"email":        logger.MaskEmail(event.Email),
		"requires_2fa": event.Requires2FA,
		"signed_up_at": event.SignedUpAt,
	}
	p.logEvent(eventUserSignedUp, event.SignedUpAt, payload)
	return nil
}

// PublishUserLoggedIn logs user.logged_in events.
func (p *StubPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	payload := map[string]any{
		"email":        logger.MaskEmail(event.Email),
		"via_2fa":      event.Via2FA,
		"logged_in_at": event.LoggedInAt,
	}
	p.logEvent(eventUserLoggedIn, event.LoggedInAt, payload)
	return nil
}

// PublishChallengeIssued logs 2fa.challenge.issued events.
func (p *StubPublisher) PublishChallengeIssued(_ context.Context, event domain.ChallengeIssuedEvent) error {
	payload := map[string]any{
		"email":      logger.MaskEmail(event.Email),
		"attempt_id": event.AttemptID,
		"issued_at":  event.IssuedAt,
	}
	p.logEvent(eventChallengeIssued, event.IssuedAt, payload)
	return nil
}

// PublishTokenRevoked logs token.revoked events.
func (p *StubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	payload := map[string]any{
		"subject":    logger.MaskEmail(event.Subject),
		"expires_at": event.ExpiresAt,
		"revoked_at": event.RevokedAt,
	}
	p.logEvent(eventTokenRevoked, event.RevokedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
