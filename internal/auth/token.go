// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/debtwise/debtwise/internal/fault"
)

// Token kinds carried in the "kind" claim.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// AccessTokenTTL is fixed; only the refresh TTL is configurable.
const AccessTokenTTL = 15 * time.Minute

// DefaultRefreshTokenTTL is used when no refresh TTL is configured.
const DefaultRefreshTokenTTL = 30 * 24 * time.Hour

// Claims are the facts embedded in a signed token. Tokens are immutable
// once issued; a refresh mints a brand-new pair, it never mutates the old
// one.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Kind  string `json:"kind"`
}

// TokenPair bundles a short-lived access token and a longer-lived refresh
// token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService signs and verifies time-bounded credential tokens using a
// server-held secret. Verification is stateless and requires no locking.
type TokenService struct {
	secret     []byte
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService. The refresh TTL falls back to
// DefaultRefreshTokenTTL when zero.
func NewTokenService(secret []byte, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Errorf("signing secret is required")
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &TokenService{secret: secret, refreshTTL: refreshTTL}, nil
}

// Issue produces a signed token encoding the subject, email, kind, and
// issued-at/expiry claims. Each token carries a unique id: issued-at has
// second granularity, so without it two tokens minted in the same second
// for the same subject would be byte-identical.
func (s *TokenService) Issue(subject, email, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Kind:  kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", oops.Code(fault.CodeInternal).
			With("operation", "sign token").
			Wrap(err)
	}
	return signed, nil
}

// Verify checks the signature and structure of a token and returns its
// claims. Expiry is reported with a distinct code so callers can tell it
// apart internally; the classifier collapses both onto AUTH_INVALID_TOKEN
// for clients.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code(fault.CodeTokenExpired).Wrap(err)
		}
		return nil, oops.Code(fault.CodeInvalidToken).Wrap(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, oops.Code(fault.CodeInvalidToken).Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, oops.Code(fault.CodeInvalidToken).Errorf("token missing subject")
	}
	if claims.Kind != TokenKindAccess && claims.Kind != TokenKindRefresh {
		return nil, oops.Code(fault.CodeInvalidToken).Errorf("token missing kind")
	}
	return claims, nil
}

// Pair issues a fresh access+refresh pair for the subject. Every call
// mints new tokens, even for the same subject and email.
func (s *TokenService) Pair(subject, email string) (*TokenPair, error) {
	access, err := s.Issue(subject, email, TokenKindAccess, AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issue(subject, email, TokenKindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
