package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/core/port"
	"github.com/avergin/sessionguard/internal/infra/config"
	"github.com/avergin/sessionguard/internal/infra/logger"
)

const schemaVersion = "1.0"

// Event types published by the auth service. Payloads carry masked emails and
// never carry codes, passwords, or raw tokens.
const (
	eventUserSignedUp    = "user.signed_up"
	eventUserLoggedIn    = "user.logged_in"
	eventChallengeIssued = "2fa.challenge.issued"
	eventTokenRevoked    = "token.revoked"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Subject   string           `json:"subject,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, subject string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Subject:   subject,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserSignedUp publishes user.signed_up events.
func (p *EventPublisher) PublishUserSignedUp(ctx context.Context, event domain.UserSignedUpEvent) error {
	masked := logger.MaskEmail(event.Email)
	payload := struct {
		Email       string    `json:"email"`
		Requires2FA bool      `json:"requires_2fa"`
		SignedUpAt  time.Time `json:"signed_up_at"`
	}{
		Email:       masked,
		Requires2FA: event.Requires2FA,
		SignedUpAt:  event.SignedUpAt.UTC(),
	}

	return p.publish(ctx, event.EventID, eventUserSignedUp, masked, event.SignedUpAt, payload)
}

// PublishUserLoggedIn publishes user.logged_in events.
func (p *EventPublisher) PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error {
	masked := logger.MaskEmail(event.Email)
	payload := struct {
		Email      string    `json:"email"`
		Via2FA     bool      `json:"via_2fa"`
		LoggedInAt time.Time `json:"logged_in_at"`
	}{
		Email:      masked,
		Via2FA:     event.Via2FA,
		LoggedInAt: event.LoggedInAt.UTC(),
	}

	return p.publish(ctx, event.EventID, eventUserLoggedIn, masked, event.LoggedInAt, payload)
}

// PublishChallengeIssued publishes 2fa.challenge.issued events. The payload
// carries the attempt id only, never the code.
func (p *EventPublisher) PublishChallengeIssued(ctx context.Context, event domain.ChallengeIssuedEvent) error {
	masked := logger.MaskEmail(event.Email)
	payload := struct {
		Email     string    `json:"email"`
		AttemptID string    `json:"attempt_id"`
		IssuedAt  time.Time `json:"issued_at"`
	}{
		Email:     masked,
		AttemptID: event.AttemptID,
		IssuedAt:  event.IssuedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, eventChallengeIssued, masked, event.IssuedAt, payload)
}

// PublishTokenRevoked publishes token.revoked events. The payload identifies
// the session subject and expiry, never the raw token.
func (p *EventPublisher) PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error {
	masked := logger.MaskEmail(event.Subject)
	payload := struct {
		Subject   string    `json:"subject"`
		ExpiresAt time.Time `json:"expires_at"`
		RevokedAt time.Time `json:"revoked_at"`
	}{
		Subject:   masked,
		ExpiresAt: event.ExpiresAt.UTC(),
		RevokedAt: event.RevokedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, eventTokenRevoked, masked, event.RevokedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
