// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

// Package authtest provides test doubles for the auth package.
package authtest

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/debtwise/debtwise/internal/auth"
)

// FakeUserRepository is an in-memory auth.UserRepository. Create is atomic
// under a mutex, so concurrent duplicate registrations behave like a real
// unique constraint: exactly one succeeds.
type FakeUserRepository struct {
	mu      sync.Mutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID

	// CreateErr, when set, is returned from Create before any state change.
	CreateErr error
	// GetErr, when set, is returned from both lookup methods.
	GetErr error
}

// NewFakeUserRepository creates an empty FakeUserRepository.
func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
	}
}

// Create stores a user, rejecting duplicate emails case-insensitively.
func (r *FakeUserRepository) Create(_ context.Context, user *auth.User) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return nil, r.CreateErr
	}

	key := strings.ToLower(user.Email)
	if _, exists := r.byEmail[key]; exists {
		return nil, auth.ErrDuplicateEmail
	}

	stored := *user
	r.byID[stored.ID] = &stored
	r.byEmail[key] = stored.ID

	copied := stored
	return &copied, nil
}

// GetByID retrieves a user by id.
func (r *FakeUserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.GetErr != nil {
		return nil, r.GetErr
	}
	user, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *FakeUserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.GetErr != nil {
		return nil, r.GetErr
	}
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}

// Deactivate flips a stored user to inactive.
func (r *FakeUserRepository) Deactivate(id ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.byID[id]; ok {
		user.Active = false
	}
}

// Delete removes a stored user.
func (r *FakeUserRepository) Delete(id ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.byID[id]; ok {
		delete(r.byEmail, strings.ToLower(user.Email))
		delete(r.byID, id)
	}
}

// Compile-time interface check.
var _ auth.UserRepository = (*FakeUserRepository)(nil)
