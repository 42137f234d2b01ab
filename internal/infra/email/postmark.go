package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/infra/config"
	"github.com/avergin/sessionguard/internal/infra/logger"
)

const (
	postmarkEmailPath     = "/email"
	postmarkTokenHeader   = "X-Postmark-Server-Token"
	postmarkMessageStream = "outbound"
)

// PostmarkNotifier delivers messages through the Postmark transactional email
// API.
type PostmarkNotifier struct {
	baseURL string
	sender  string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

type postmarkRequest struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

func NewPostmarkNotifier(cfg config.EmailSettings, log *zap.Logger) (*PostmarkNotifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("postmark server token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &PostmarkNotifier{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		sender:  cfg.Sender,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}, nil
}

// Send posts a single transactional message. A non-2xx response is an error;
// the response body is included for diagnostics but never the message body.
func (n *PostmarkNotifier) Send(ctx context.Context, recipient domain.Email, subject, body string) error {
	payload, err := json.Marshal(postmarkRequest{
		From:          n.sender,
		To:            recipient.Address(),
		Subject:       subject,
		TextBody:      body,
		MessageStream: postmarkMessageStream,
	})
	if err != nil {
		return fmt.Errorf("marshal postmark request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+postmarkEmailPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build postmark request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(postmarkTokenHeader, n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("postmark request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("postmark responded %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	n.logger.Debug("email delivered",
		zap.String("recipient", logger.MaskEmail(recipient.Address())),
		zap.String("subject", subject),
	)

	return nil
}
