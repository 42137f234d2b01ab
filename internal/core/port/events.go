package port

import (
	"context"

	"github.com/avergin/sessionguard/internal/core/domain"
)

// EventPublisher broadcasts auth lifecycle events. Publishing is best effort:
// callers log failures but never fail the user-facing operation over them.
type EventPublisher interface {
	PublishUserSignedUp(ctx context.Context, event domain.UserSignedUpEvent) error
	PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error
	PublishChallengeIssued(ctx context.Context, event domain.ChallengeIssuedEvent) error
	PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error
}
