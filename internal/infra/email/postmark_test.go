package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/infra/config"
)

func mustEmail(t *testing.T, raw string) domain.Email {
	t.Helper()

	email, err := domain.ParseEmail(raw)
	if err != nil {
		t.Fatalf("ParseEmail(%q) returned error: %v", raw, err)
	}
	return email
}

func TestPostmarkNotifierSend(t *testing.T) {
	var (
		gotPath  string
		gotToken string
		gotBody  postmarkRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ErrorCode":0,"Message":"OK"}`))
	}))
	defer server.Close()

	notifier, err := NewPostmarkNotifier(config.EmailSettings{
		BaseURL: server.URL,
		Sender:  "no-reply@sessionguard.local",
		Token:   "server-token",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPostmarkNotifier returned error: %v", err)
	}

	err = notifier.Send(context.Background(), mustEmail(t, "bob@example.com"), "Your verification code", "123456")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if gotPath != "/email" {
		t.Fatalf("expected POST /email, got %s", gotPath)
	}
	if gotToken != "server-token" {
		t.Fatalf("expected server token header, got %q", gotToken)
	}
	if gotBody.To != "bob@example.com" {
		t.Fatalf("expected recipient bob@example.com, got %s", gotBody.To)
	}
	if gotBody.From != "no-reply@sessionguard.local" {
		t.Fatalf("unexpected sender %s", gotBody.From)
	}
	if gotBody.Subject != "Your verification code" {
		t.Fatalf("unexpected subject %s", gotBody.Subject)
	}
	if gotBody.TextBody != "123456" {
		t.Fatalf("unexpected body %s", gotBody.TextBody)
	}
	if gotBody.MessageStream != "outbound" {
		t.Fatalf("unexpected message stream %s", gotBody.MessageStream)
	}
}

func TestPostmarkNotifierSendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid token"}`))
	}))
	defer server.Close()

	notifier, err := NewPostmarkNotifier(config.EmailSettings{
		BaseURL: server.URL,
		Sender:  "no-reply@sessionguard.local",
		Token:   "server-token",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPostmarkNotifier returned error: %v", err)
	}

	if err := notifier.Send(context.Background(), mustEmail(t, "bob@example.com"), "subject", "body"); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}

func TestPostmarkNotifierRequiresToken(t *testing.T) {
	if _, err := NewPostmarkNotifier(config.EmailSettings{BaseURL: "https://api.postmarkapp.com"}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for missing server token")
	}
}
