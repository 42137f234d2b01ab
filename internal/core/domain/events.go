package domain

import "time"

// UserSignedUpEvent is emitted after a successful signup.
type UserSignedUpEvent struct {
	EventID     string
	Email       string
	Requires2FA bool
	SignedUpAt  time.Time
}

// UserLoggedInEvent is emitted after a session token is issued, whether the
// login completed directly or through a 2FA challenge.
type UserLoggedInEvent struct {
	EventID    string
	Email      string
	Via2FA     bool
	LoggedInAt time.Time
}

// ChallengeIssuedEvent is emitted when a 2FA challenge is created. It carries
// the attempt id but never the code.
type ChallengeIssuedEvent struct {
	EventID   string
	Email     string
	AttemptID string
	IssuedAt  time.Time
}

// TokenRevokedEvent is emitted when a token is added to the revocation list.
type TokenRevokedEvent struct {
	EventID   string
	Subject   string
	ExpiresAt time.Time
	RevokedAt time.Time
}
