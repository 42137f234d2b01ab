package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/infra/logger"
)

// LoggingNotifier writes deliveries to the service log instead of sending
// them. Used in development when no email provider is configured. The message
// body is never logged.
type LoggingNotifier struct {
	logger *zap.Logger
}

func NewLoggingNotifier(log *zap.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: log}
}

func (n *LoggingNotifier) Send(_ context.Context, recipient domain.Email, subject, _ string) error {
	n.logger.Info("email delivery (logging mode)",
		zap.String("recipient", logger.MaskEmail(recipient.Address())),
		zap.String("subject", subject),
	)
	return nil
}
