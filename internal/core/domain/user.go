package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidEmail indicates the supplied address does not look like an email.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrInvalidPassword indicates the supplied password violates the minimum policy.
	ErrInvalidPassword = errors.New("password must be at least 8 characters")
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// Email is a validated email address. Its String form is masked so the
// address never leaks into logs or error messages by accident; callers that
// genuinely need the raw value use Address.
type Email struct {
	addr string
}

// ParseEmail validates the raw address: non-empty, exactly one side of an "@"
// on each end.
func ParseEmail(raw string) (Email, error) {
	raw = strings.TrimSpace(raw)
	at := strings.Index(raw, "@")
	if raw == "" || at <= 0 || at == len(raw)-1 {
		return Email{}, ErrInvalidEmail
	}
	return Email{addr: raw}, nil
}

// Address reveals the raw address. Use only where the real value is required
// (store keys, message recipients).
func (e Email) Address() string {
	return e.addr
}

// Equal reports whether both emails wrap the same address.
func (e Email) Equal(other Email) bool {
	return e.addr == other.addr
}

// IsZero reports whether the email is unset.
func (e Email) IsZero() bool {
	return e.addr == ""
}

// String returns a masked rendering, e.g. "jo***@example.com".
func (e Email) String() string {
	at := strings.Index(e.addr, "@")
	if at <= 0 {
		return "***"
	}
	local := e.addr[:at]
	if len(local) > 3 {
		local = local[:3]
	}
	return local + "***" + e.addr[at:]
}

// Password is a validated plaintext password. It is never persisted; only the
// Argon2id hash derived from it is stored. String always redacts.
type Password struct {
	raw string
}

// ParsePassword enforces the minimum length policy.
func ParsePassword(raw string) (Password, error) {
	if len(raw) < MinPasswordLength {
		return Password{}, ErrInvalidPassword
	}
	return Password{raw: raw}, nil
}

// Reveal returns the plaintext. Only the password hasher should call this.
func (p Password) Reveal() string {
	return p.raw
}

// String implements fmt.Stringer with a constant redaction.
func (p Password) String() string {
	return "[REDACTED]"
}

// User mirrors the persisted representation in the users table.
type User struct {
	Email        Email
	PasswordHash string
	Requires2FA  bool
}
