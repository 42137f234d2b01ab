package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avergin/sessionguard/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse builds an error payload carrying the request's trace id.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// SignupRequest defines the payload for the signup endpoint.
type SignupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Requires2FA bool   `json:"requires2FA"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned when a login or 2FA verification issues a token.
type TokenResponse struct {
	Token string `json:"token"`
}

// TwoFARequiredResponse is returned when the login needs a second factor. The
// attempt id correlates the follow-up verification call; the code travels by
// email only.
type TwoFARequiredResponse struct {
	Message        string `json:"message"`
	LoginAttemptID string `json:"loginAttemptId"`
}

// Verify2FARequest defines the payload for the 2FA verification endpoint.
type Verify2FARequest struct {
	Email          string `json:"email" binding:"required"`
	LoginAttemptID string `json:"loginAttemptId" binding:"required"`
	TwoFACode      string `json:"2FACode" binding:"required"`
}

// TokenRequest carries a session token in the body for the verify-token and
// logout endpoints. The Authorization bearer header is accepted as an
// alternative.
type TokenRequest struct {
	Token string `json:"token"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes the readiness payload with per-dependency detail.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
