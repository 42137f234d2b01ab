package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/core/port"
	"github.com/avergin/sessionguard/internal/infra/security"
	"github.com/avergin/sessionguard/internal/repository"
)

type stubUserRecord struct {
	password    string
	requires2FA bool
}

type stubUserStore struct {
	users map[string]stubUserRecord
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]stubUserRecord)}
}

func (s *stubUserStore) Add(_ context.Context, user port.NewUser) error {
	key := user.Email.Address()
	if _, exists := s.users[key]; exists {
		return repository.ErrAlreadyExists
	}
	s.users[key] = stubUserRecord{password: user.Password.Reveal(), requires2FA: user.Requires2FA}
	return nil
}

func (s *stubUserStore) Get(_ context.Context, email domain.Email) (*domain.User, error) {
	rec, ok := s.users[email.Address()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &domain.User{Email: email, Requires2FA: rec.requires2FA}, nil
}

func (s *stubUserStore) ValidateCredentials(_ context.Context, email domain.Email, password domain.Password) error {
	rec, ok := s.users[email.Address()]
	if !ok {
		return repository.ErrNotFound
	}
	if rec.password != password.Reveal() {
		return repository.ErrInvalidCredentials
	}
	return nil
}

type stubChallengeStore struct {
	challenges map[string]domain.Challenge
}

func newStubChallengeStore() *stubChallengeStore {
	return &stubChallengeStore{challenges: make(map[string]domain.Challenge)}
}

func (s *stubChallengeStore) Put(_ context.Context, email domain.Email, challenge domain.Challenge) error {
	s.challenges[email.Address()] = challenge
	return nil
}

func (s *stubChallengeStore) Get(_ context.Context, email domain.Email) (*domain.Challenge, error) {
	challenge, ok := s.challenges[email.Address()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &challenge, nil
}

func (s *stubChallengeStore) Remove(_ context.Context, email domain.Email) error {
	if _, ok := s.challenges[email.Address()]; !ok {
		return repository.ErrNotFound
	}
	delete(s.challenges, email.Address())
	return nil
}

type stubRevocationStore struct {
	revoked map[string]time.Duration
}

func newStubRevocationStore() *stubRevocationStore {
	return &stubRevocationStore{revoked: make(map[string]time.Duration)}
}

func (s *stubRevocationStore) Add(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("non-positive ttl")
	}
	s.revoked[token] = ttl
	return nil
}

func (s *stubRevocationStore) Contains(_ context.Context, token string) (bool, error) {
	_, ok := s.revoked[token]
	return ok, nil
}

type captureNotifier struct {
	recipient string
	subject   string
	body      string
	sends     int
	err       error
}

func (n *captureNotifier) Send(_ context.Context, recipient domain.Email, subject, body string) error {
	if n.err != nil {
		return n.err
	}
	n.recipient = recipient.Address()
	n.subject = subject
	n.body = body
	n.sends++
	return nil
}

type authFixture struct {
	service    *AuthService
	users      *stubUserStore
	challenges *stubChallengeStore
	revoked    *stubRevocationStore
	tokens     *security.TokenAuthority
	notifier   *captureNotifier
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := newStubUserStore()
	challenges := newStubChallengeStore()
	revoked := newStubRevocationStore()
	notifier := &captureNotifier{}

	tokens, err := security.NewTokenAuthority("test-secret", 10*time.Minute, revoked)
	if err != nil {
		t.Fatalf("NewTokenAuthority returned error: %v", err)
	}

	service := NewAuthService(users, challenges, revoked, tokens, notifier, nil, zap.NewNop())

	return &authFixture{
		service:    service,
		users:      users,
		challenges: challenges,
		revoked:    revoked,
		tokens:     tokens,
		notifier:   notifier,
	}
}

func (f *authFixture) addUser(t *testing.T, email, password string, requires2FA bool) {
	t.Helper()

	parsedEmail, err := domain.ParseEmail(email)
	if err != nil {
		t.Fatalf("ParseEmail(%q) returned error: %v", email, err)
	}
	parsedPassword, err := domain.ParsePassword(password)
	if err != nil {
		t.Fatalf("ParsePassword returned error: %v", err)
	}

	if err := f.users.Add(context.Background(), port.NewUser{
		Email:       parsedEmail,
		Password:    parsedPassword,
		Requires2FA: requires2FA,
	}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
}

func TestLoginIssuesTokenWithout2FA(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "password123", false)

	result, err := f.service.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.TwoFARequired {
		t.Fatalf("expected direct login, got 2FA required")
	}
	if result.Token == "" {
		t.Fatalf("expected a token")
	}

	claims, err := f.service.VerifyToken(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Fatalf("expected subject alice@example.com, got %s", claims.Subject)
	}
}

func TestLoginRejectsMalformedInput(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.service.Login(context.Background(), "not-an-email", "password123"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}
	if _, err := f.service.Login(context.Background(), "alice@example.com", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
}

func TestLoginFailureIsUniform(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "password123", false)

	_, unknownErr := f.service.Login(context.Background(), "nobody@example.com", "password123")
	_, wrongErr := f.service.Login(context.Background(), "alice@example.com", "wrongpassword")

	if !errors.Is(unknownErr, ErrIncorrectCredentials) {
		t.Fatalf("expected ErrIncorrectCredentials for unknown email, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrIncorrectCredentials) {
		t.Fatalf("expected ErrIncorrectCredentials for wrong password, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("unknown-email and wrong-password failures must be indistinguishable: %q vs %q", unknownErr, wrongErr)
	}
}

func TestLoginOpensChallengeFor2FAUser(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "bob@example.com", "password123", true)

	result, err := f.service.Login(context.Background(), "bob@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if !result.TwoFARequired {
		t.Fatalf("expected 2FA required")
	}
	if result.Token != "" {
		t.Fatalf("2FA login must not carry a token")
	}
	if _, err := domain.ParseAttemptID(result.AttemptID); err != nil {
		t.Fatalf("attempt id %q not a UUID: %v", result.AttemptID, err)
	}

	if f.notifier.sends != 1 {
		t.Fatalf("expected one delivery, got %d", f.notifier.sends)
	}
	if f.notifier.recipient != "bob@example.com" {
		t.Fatalf("expected delivery to bob@example.com, got %s", f.notifier.recipient)
	}
	if _, err := domain.ParseTwoFACode(f.notifier.body); err != nil {
		t.Fatalf("delivered body %q is not a 6-digit code: %v", f.notifier.body, err)
	}

	stored, err := f.challenges.Get(context.Background(), mustEmail(t, "bob@example.com"))
	if err != nil {
		t.Fatalf("challenge not stored: %v", err)
	}
	if stored.AttemptID.String() != result.AttemptID {
		t.Fatalf("stored attempt id %s does not match result %s", stored.AttemptID, result.AttemptID)
	}
}

func TestLoginReplacesOutstandingChallenge(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "bob@example.com", "password123", true)

	first, err := f.service.Login(context.Background(), "bob@example.com", "password123")
	if err != nil {
		t.Fatalf("first login returned error: %v", err)
	}
	firstCode := f.notifier.body

	second, err := f.service.Login(context.Background(), "bob@example.com", "password123")
	if err != nil {
		t.Fatalf("second login returned error: %v", err)
	}
	secondCode := f.notifier.body

	if first.AttemptID == second.AttemptID {
		t.Fatalf("expected a fresh attempt id per login")
	}

	// The first pair is dead once replaced.
	if _, err := f.service.Verify2FA(context.Background(), "bob@example.com", first.AttemptID, firstCode); !errors.Is(err, ErrIncorrectCredentials) {
		t.Fatalf("expected replaced challenge to fail, got %v", err)
	}

	token, err := f.service.Verify2FA(context.Background(), "bob@example.com", second.AttemptID, secondCode)
	if err != nil {
		t.Fatalf("Verify2FA with current challenge returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
}

func TestLoginFailsWhenDeliveryFails(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "bob@example.com", "password123", true)
	f.notifier.err = errors.New("smtp down")

	if _, err := f.service.Login(context.Background(), "bob@example.com", "password123"); err == nil {
		t.Fatalf("expected login to fail when code delivery fails")
	}
}

func TestVerify2FAIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "bob@example.com", "password123", true)

	result, err := f.service.Login(context.Background(), "bob@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	code := f.notifier.body

	token, err := f.service.Verify2FA(context.Background(), "bob@example.com", result.AttemptID, code)
	if err != nil {
		t.Fatalf("Verify2FA returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}

	if _, err := f.service.Verify2FA(context.Background(), "bob@example.com", result.AttemptID, code); !errors.Is(err, ErrIncorrectCredentials) {
		t.Fatalf("expected second redemption to fail, got %v", err)
	}
}

func TestVerify2FARejectsMismatch(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "bob@example.com", "password123", true)

	result, err := f.service.Login(context.Background(), "bob@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	code := f.notifier.body

	wrongCode := "000000"
	if wrongCode == code {
		wrongCode = "999999"
	}
	if _, err := f.service.Verify2FA(context.Background(), "bob@example.com", result.AttemptID, wrongCode); !errors.Is(err, ErrIncorrectCredentials) {
		t.Fatalf("expected wrong code to fail, got %v", err)
	}

	otherAttempt := domain.NewAttemptID().String()
	if _, err := f.service.Verify2FA(context.Background(), "bob@example.com", otherAttempt, code); !errors.Is(err, ErrIncorrectCredentials) {
		t.Fatalf("expected wrong attempt id to fail, got %v", err)
	}

	// A mismatch does not consume the challenge.
	token, err := f.service.Verify2FA(context.Background(), "bob@example.com", result.AttemptID, code)
	if err != nil {
		t.Fatalf("Verify2FA after mismatches returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
}

func TestVerify2FAWithoutChallenge(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "bob@example.com", "password123", true)

	attempt := domain.NewAttemptID().String()
	if _, err := f.service.Verify2FA(context.Background(), "bob@example.com", attempt, "123456"); !errors.Is(err, ErrIncorrectCredentials) {
		t.Fatalf("expected ErrIncorrectCredentials without a challenge, got %v", err)
	}
}

func TestVerify2FARejectsMalformedInput(t *testing.T) {
	f := newAuthFixture(t)

	attempt := domain.NewAttemptID().String()
	cases := []struct {
		name      string
		email     string
		attemptID string
		code      string
	}{
		{"bad email", "nope", attempt, "123456"},
		{"bad attempt id", "bob@example.com", "not-a-uuid", "123456"},
		{"short code", "bob@example.com", attempt, "123"},
		{"out of range code", "bob@example.com", attempt, "012345"},
	}

	for _, tc := range cases {
		if _, err := f.service.Verify2FA(context.Background(), tc.email, tc.attemptID, tc.code); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "password123", false)

	result, err := f.service.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := f.service.Logout(context.Background(), result.Token); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if _, err := f.service.VerifyToken(context.Background(), result.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to fail verification, got %v", err)
	}

	// The token is already invalid, so a second logout fails.
	if err := f.service.Logout(context.Background(), result.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected second logout to fail, got %v", err)
	}
}

func TestLogoutRejectsGarbageToken(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.service.Logout(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokenExpiry(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "password123", false)

	result, err := f.service.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	later := time.Now().Add(11 * time.Minute)
	f.tokens.WithClock(func() time.Time { return later })
	f.service.WithClock(func() time.Time { return later })

	if _, err := f.service.VerifyToken(context.Background(), result.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail verification, got %v", err)
	}
	if err := f.service.Logout(context.Background(), result.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected logout of expired token to fail, got %v", err)
	}
}

func TestFullTwoFALifecycle(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "carol@example.com", "password123", true)

	result, err := f.service.Login(context.Background(), "carol@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if !result.TwoFARequired {
		t.Fatalf("expected 2FA required")
	}

	token, err := f.service.Verify2FA(context.Background(), "carol@example.com", result.AttemptID, f.notifier.body)
	if err != nil {
		t.Fatalf("Verify2FA returned error: %v", err)
	}

	claims, err := f.service.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}
	if claims.Subject != "carol@example.com" {
		t.Fatalf("expected subject carol@example.com, got %s", claims.Subject)
	}

	if err := f.service.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, err := f.service.VerifyToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token to be dead after logout, got %v", err)
	}
}

func mustEmail(t *testing.T, raw string) domain.Email {
	t.Helper()

	email, err := domain.ParseEmail(raw)
	if err != nil {
		t.Fatalf("ParseEmail(%q) returned error: %v", raw, err)
	}
	return email
}
