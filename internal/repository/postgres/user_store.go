package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avergin/sessionguard/internal/core/domain"
	"github.com/avergin/sessionguard/internal/core/port"
	"github.com/avergin/sessionguard/internal/repository"
)

const uniqueViolationCode = "23505"

// UserStore implements port.UserStore using PostgreSQL.
type UserStore struct {
	pool    *pgxpool.Pool
	hasher  port.PasswordHasher
	builder squirrel.StatementBuilderType
}

// NewUserStore wires a PostgreSQL-backed user store.
func NewUserStore(pool *pgxpool.Pool, hasher port.PasswordHasher) *UserStore {
	return &UserStore{
		pool:    pool,
		hasher:  hasher,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Add hashes the password and inserts a new user row.
func (s *UserStore) Add(ctx context.Context, user port.NewUser) error {
	hash, err := s.hasher.Hash(ctx, user.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	stmt, args, err := s.builder.Insert("users").
		Columns("email", "password_hash", "requires_2fa").
		Values(user.Email.Address(), hash, user.Requires2FA).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := s.pool.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// Get retrieves the stored projection for the email. The hash stays in the
// database; credential checks go through ValidateCredentials.
func (s *UserStore) Get(ctx context.Context, email domain.Email) (*domain.User, error) {
	stmt, args, err := s.builder.
		Select("requires_2fa").
		From("users").
		Where(squirrel.Eq{"email": email.Address()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	var requires2FA bool
	if err := s.pool.QueryRow(ctx, stmt, args...).Scan(&requires2FA); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &domain.User{Email: email, Requires2FA: requires2FA}, nil
}

// ValidateCredentials verifies the password against the stored hash.
func (s *UserStore) ValidateCredentials(ctx context.Context, email domain.Email, password domain.Password) error {
	stmt, args, err := s.builder.
		Select("password_hash").
		From("users").
		Where(squirrel.Eq{"email": email.Address()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select hash sql: %w", err)
	}

	var hash string
	if err := s.pool.QueryRow(ctx, stmt, args...).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("scan password hash: %w", err)
	}

	match, err := s.hasher.Verify(ctx, password, hash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return repository.ErrInvalidCredentials
	}
	return nil
}
