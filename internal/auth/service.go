// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/debtwise/debtwise/internal/fault"
)

// dummyPasswordHash is verified when a user doesn't exist to keep response
// time consistent and prevent timing-based account enumeration. It is NOT a
// real credential; it never matches any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$2a$12$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Session is the result of a successful register or login: the sanitized
// user plus a fresh token pair.
type Session struct {
	User   *PublicUser `json:"user"`
	Tokens TokenPair   `json:"tokens"`
}

// RegisterInput carries the fields needed to create an account. The
// plaintext password is transient: never persisted, never logged.
type RegisterInput struct {
	Email         string
	FirstName     string
	LastName      string
	Password      string
	MonthlyIncome *float64
}

// Service orchestrates registration, login, and token refresh. It fails
// fast with a typed error the moment a precondition is violated; the
// classifier is the only layer that decides client-visible messages.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *TokenService
	logger *slog.Logger
}

// NewService creates the authentication service.
func NewService(users UserRepository, hasher PasswordHasher, tokens *TokenService, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger}, nil
}

// Register creates a user with default preferences and returns the stored
// record (hash stripped) plus a fresh token pair. Duplicate emails are
// detected by the store's unique constraint, not a pre-check, so concurrent
// registrations race safely: exactly one wins.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &User{
		ID:            ulid.Make(),
		Email:         NormalizeEmail(in.Email),
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		PasswordHash:  hash,
		MonthlyIncome: in.MonthlyIncome,
		Active:        true,
		Preferences:   DefaultPreferences(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code(fault.CodeDuplicateEntry).
				With("operation", "create user").
				Wrap(err)
		}
		return nil, oops.Code(fault.CodeQueryFailed).
			With("operation", "create user").
			Wrap(err)
	}

	pair, err := s.tokens.Pair(created.ID.String(), created.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", created.ID.String())
	return &Session{User: created.Public(), Tokens: *pair}, nil
}

// Login verifies credentials and issues a token pair. A missing user, an
// inactive account, and a wrong password all produce the identical error so
// responses cannot be used to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, lookupErr := s.users.GetByEmail(ctx, NormalizeEmail(email))

	// Verify against a dummy hash when the user is absent so the response
	// time stays consistent.
	targetHash := dummyPasswordHash
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code(fault.CodeQueryFailed).
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, invalidCredentials()
		}
		// Malformed stored hash: an internal fault, never "wrong password".
		return nil, verifyErr
	}

	if !userExists || !valid || !user.Active {
		return nil, invalidCredentials()
	}

	pair, err := s.tokens.Pair(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID.String())
	return &Session{User: user.Public(), Tokens: *pair}, nil
}

// Refresh verifies a refresh token and issues a brand-new pair. The old
// refresh token is not blacklisted; re-use is allowed until natural expiry.
// Any verification failure, including a deleted or deactivated user,
// surfaces as an invalid token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindRefresh {
		return nil, oops.Code(fault.CodeInvalidToken).Errorf("token is not a refresh token")
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, oops.Code(fault.CodeInvalidToken).
			With("operation", "parse subject").
			Wrap(err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil || !user.Active {
		return nil, oops.Code(fault.CodeInvalidToken).Errorf("token subject is not usable")
	}

	return s.tokens.Pair(user.ID.String(), user.Email)
}

// User returns the sanitized record for an authenticated subject.
func (s *Service) User(ctx context.Context, id ulid.ULID) (*PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(fault.CodeNotFound).
				With("operation", "get user by id").
				Wrap(err)
		}
		return nil, oops.Code(fault.CodeQueryFailed).
			With("operation", "get user by id").
			Wrap(err)
	}
	return user.Public(), nil
}

func invalidCredentials() error {
	return oops.Code(fault.CodeInvalidCredentials).Errorf("invalid email or password")
}
