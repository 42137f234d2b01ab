package domain

import "time"

// SessionClaims is the decoded payload of a session token: who it asserts and
// until when. Tokens are self-contained; revocation state lives in the
// revocation store.
type SessionClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// Remaining returns the token lifetime left at the given instant. It is
// non-positive for an expired token.
func (c SessionClaims) Remaining(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}
