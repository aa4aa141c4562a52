// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/debtwise/debtwise/internal/fault"
)

// HashCost is the bcrypt cost factor. 2^12 rounds per hash.
const HashCost = 12

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(fault.CodeValidationFailed).Errorf("password cannot be empty")

// PasswordHasher provides one-way salted password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted hash of the password. The salt is random, so
	// the same input produces a different output each call.
	Hash(password string) (string, error)

	// Verify checks the password against a stored hash in constant time.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// if the stored hash is malformed.
	Verify(password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the fixed cost factor.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: HashCost}
}

// Hash produces a bcrypt hash of the password with an embedded random salt.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code(fault.CodeInternal).
			With("operation", "bcrypt hash").
			Wrap(err)
	}
	return string(hashed), nil
}

// Verify checks the password against the stored hash. A mismatch is a clean
// (false, nil); a malformed stored hash is an internal error, never reported
// as a wrong password.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, oops.Code(fault.CodeInternal).
		With("operation", "bcrypt compare").
		Wrap(err)
}

// Compile-time interface check.
var _ PasswordHasher = (*BcryptHasher)(nil)
