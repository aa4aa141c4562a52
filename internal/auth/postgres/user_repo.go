// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

// Package postgres implements auth repositories using PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/debtwise/debtwise/internal/auth"
)

// Querier is the subset of pgxpool.Pool the repository needs. Tests
// substitute a pgxmock connection.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, password_hash,
	       monthly_income, active, preferences, created_at, updated_at`

// Create stores a new user. A unique violation on the email column maps to
// auth.ErrDuplicateEmail; the constraint, not a prior existence check, is
// authoritative for concurrent registrations.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	prefsJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "marshal preferences").
			Wrap(err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO users (
			id, email, first_name, last_name, password_hash,
			monthly_income, active, preferences, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		user.ID.String(),
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.MonthlyIncome,
		user.Active,
		prefsJSON,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("USER_CREATE_CONFLICT").
				With("operation", "insert user").
				Wrap(auth.ErrDuplicateEmail)
		}
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	stored := *user
	return &stored, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr     string
		user      auth.User
		prefsJSON []byte
	)

	err := row.Scan(
		&idStr,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.MonthlyIncome,
		&user.Active,
		&prefsJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}
	user.ID = id

	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &user.Preferences); err != nil {
			return nil, oops.Code("USER_INVALID_PREFERENCES").
				With("operation", "unmarshal preferences").
				Wrap(err)
		}
	}

	return &user, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
