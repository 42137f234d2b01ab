package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/avergin/sessionguard/internal/core/domain"
)

// ErrHasherClosed is returned for work submitted after Close.
var ErrHasherClosed = errors.New("security: password hasher closed")

// PasswordHasher runs Argon2id hashing and verification on a fixed-size
// worker pool, keeping the CPU-bound work off request goroutines. Submission
// honors ctx: a cancelled caller stops waiting, but a job already picked up
// runs to completion and its result is dropped.
type PasswordHasher struct {
	cfg  Argon2Config
	jobs chan func()
	done chan struct{}
}

// NewPasswordHasher validates the configuration and starts the worker pool.
// workers <= 0 defaults to GOMAXPROCS.
func NewPasswordHasher(cfg Argon2Config, workers int) (*PasswordHasher, error) {
	if err := validateArgon2Config(cfg); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	h := &PasswordHasher{
		cfg:  cfg,
		jobs: make(chan func()),
		done: make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go h.worker()
	}

	return h, nil
}

func (h *PasswordHasher) worker() {
	for {
		select {
		case job := <-h.jobs:
			job()
		case <-h.done:
			return
		}
	}
}

// Close stops the workers. In-flight jobs finish; queued submissions fail.
func (h *PasswordHasher) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Hash derives an Argon2id hash for the password.
func (h *PasswordHasher) Hash(ctx context.Context, password domain.Password) (string, error) {
	type result struct {
		encoded string
		err     error
	}

	out := make(chan result, 1)
	job := func() {
		encoded, err := hashPassword(password.Reveal(), h.cfg)
		out <- result{encoded: encoded, err: err}
	}

	if err := h.submit(ctx, job); err != nil {
		return "", err
	}

	select {
	case res := <-out:
		if res.err != nil {
			return "", fmt.Errorf("hash password: %w", res.err)
		}
		return res.encoded, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Verify compares the password against the stored hash.
func (h *PasswordHasher) Verify(ctx context.Context, password domain.Password, encodedHash string) (bool, error) {
	type result struct {
		match bool
		err   error
	}

	out := make(chan result, 1)
	job := func() {
		match, err := verifyPassword(password.Reveal(), encodedHash)
		out <- result{match: match, err: err}
	}

	if err := h.submit(ctx, job); err != nil {
		return false, err
	}

	select {
	case res := <-out:
		if res.err != nil {
			return false, fmt.Errorf("verify password: %w", res.err)
		}
		return res.match, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (h *PasswordHasher) submit(ctx context.Context, job func()) error {
	select {
	case h.jobs <- job:
		return nil
	case <-h.done:
		return ErrHasherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
