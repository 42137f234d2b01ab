package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/core/port"
)

var (
	// ErrTokenRevoked indicates the token appears on the revocation list.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenInvalid indicates the token is malformed or its signature does not verify.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired indicates the token's expiry has lapsed.
	ErrTokenExpired = errors.New("token expired")
)

// DefaultTokenTTL is the session token validity window, shared with the 2FA
// challenge TTL.
const DefaultTokenTTL = 600 * time.Second

// sessionClaims is the wire shape: {"sub": ..., "exp": ...}.
type sessionClaims struct {
	Subject string `json:"sub"`
	Expiry  int64  `json:"exp"`
}

func (c sessionClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Expiry, 0)), nil
}
func (c sessionClaims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c sessionClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c sessionClaims) GetIssuer() (string, error)              { return "", nil }
func (c sessionClaims) GetSubject() (string, error)             { return c.Subject, nil }
func (c sessionClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// TokenAuthority issues and validates HMAC-signed session tokens. It owns no
// persistent state of its own; revocation checks delegate to the injected
// store.
type TokenAuthority struct {
	secret  []byte
	ttl     time.Duration
	revoked port.RevocationStore
	now     func() time.Time
}

// NewTokenAuthority constructs a token authority with the server-held secret.
func NewTokenAuthority(secret string, ttl time.Duration, revoked port.RevocationStore) (*TokenAuthority, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("security: signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &TokenAuthority{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}, nil
}

// WithClock overrides the internal clock, used in tests.
func (a *TokenAuthority) WithClock(clock func() time.Time) {
	if clock != nil {
		a.now = clock
	}
}

// TTL returns the configured validity window.
func (a *TokenAuthority) TTL() time.Duration {
	return a.ttl
}

// Issue signs a token asserting the email until now+TTL.
func (a *TokenAuthority) Issue(_ context.Context, email domain.Email) (string, error) {
	claims := sessionClaims{
		Subject: email.Address(),
		Expiry:  a.now().Add(a.ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate checks the revocation list before touching the signature: a
// revoked token is rejected regardless of its signature or expiry state.
func (a *TokenAuthority) Validate(ctx context.Context, token string) (*domain.SessionClaims, error) {
	revoked, err := a.revoked.Contains(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}

	return &domain.SessionClaims{
		Subject:   claims.Subject,
		ExpiresAt: time.Unix(claims.Expiry, 0),
	}, nil
}
