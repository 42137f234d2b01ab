package domain

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	uuid "github.com/google/uuid"
)

var (
	// ErrInvalidAttemptID indicates the login attempt id is not a valid UUID.
	ErrInvalidAttemptID = errors.New("attempt id must be a valid UUID")
	// ErrInvalidTwoFACode indicates the code is not a 6-digit value in range.
	ErrInvalidTwoFACode = errors.New("2fa code must be a 6-digit number")
)

const (
	twoFACodeMin = 100000
	twoFACodeMax = 999999
)

// AttemptID correlates a login attempt with its pending 2FA challenge.
type AttemptID struct {
	value string
}

// NewAttemptID generates a fresh random (version 4 UUID) attempt id.
func NewAttemptID() AttemptID {
	return AttemptID{value: uuid.NewString()}
}

// ParseAttemptID validates an attempt id received from a caller.
func ParseAttemptID(raw string) (AttemptID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return AttemptID{}, ErrInvalidAttemptID
	}
	return AttemptID{value: parsed.String()}, nil
}

// String returns the canonical UUID form. Attempt ids are opaque but not
// secret; they are returned to callers verbatim.
func (id AttemptID) String() string {
	return id.value
}

// Equal reports whether both ids carry the same value.
func (id AttemptID) Equal(other AttemptID) bool {
	return id.value == other.value
}

// TwoFACode is a single-use 6-digit numeric challenge code. String redacts;
// the code only leaves the process through the notifier.
type TwoFACode struct {
	value string
}

// NewTwoFACode draws a uniformly random code in [100000, 999999].
func NewTwoFACode() (TwoFACode, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return TwoFACode{}, fmt.Errorf("generate 2fa code: %w", err)
	}
	span := uint64(twoFACodeMax - twoFACodeMin + 1)
	n := twoFACodeMin + int(binary.BigEndian.Uint64(buf[:])%span)
	return TwoFACode{value: fmt.Sprintf("%06d", n)}, nil
}

// ParseTwoFACode validates a code received from a caller.
func ParseTwoFACode(raw string) (TwoFACode, error) {
	if len(raw) != 6 {
		return TwoFACode{}, ErrInvalidTwoFACode
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return TwoFACode{}, ErrInvalidTwoFACode
		}
		n = n*10 + int(r-'0')
	}
	if n < twoFACodeMin || n > twoFACodeMax {
		return TwoFACode{}, ErrInvalidTwoFACode
	}
	return TwoFACode{value: raw}, nil
}

// Reveal returns the digits. Only storage and delivery paths should call this.
func (c TwoFACode) Reveal() string {
	return c.value
}

// Equal reports whether both codes match.
func (c TwoFACode) Equal(other TwoFACode) bool {
	return c.value == other.value
}

// String implements fmt.Stringer with a constant redaction.
func (c TwoFACode) String() string {
	return "[REDACTED]"
}

// Challenge is the outstanding 2FA state for one email. At most one challenge
// exists per email; storing a new one replaces the previous.
type Challenge struct {
	AttemptID AttemptID
	Code      TwoFACode
}
