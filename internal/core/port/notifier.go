package port

import (
	"context"

	"github.com/avergin/sessionguard/internal/core/domain"
)

// Notifier delivers messages to users out of band (email or SMS). A delivery
// failure aborts the enclosing login attempt.
type Notifier interface {
	Send(ctx context.Context, recipient domain.Email, subject, body string) error
}
