// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Strategy is a debt payoff strategy preference.
type Strategy string

// Supported payoff strategies.
const (
	StrategySnowball  Strategy = "snowball"
	StrategyAvalanche Strategy = "avalanche"
)

// Theme is a UI theme preference.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences contains per-user settings, stored as a JSON column.
type Preferences struct {
	Currency      string   `json:"currency"`
	Notifications bool     `json:"notifications"`
	Strategy      Strategy `json:"strategy"`
	Theme         Theme    `json:"theme"`
}

// DefaultPreferences returns the preferences assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Currency:      "INR",
		Notifications: true,
		Strategy:      StrategySnowball,
		Theme:         ThemeLight,
	}
}

// User is a stored user record. Email comparison is case-insensitive; the
// canonical stored form is lowercase.
type User struct {
	ID            ulid.ULID
	Email         string
	FirstName     string
	LastName      string
	PasswordHash  string
	MonthlyIncome *float64
	Active        bool
	Preferences   Preferences
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the outward projection of a User. It has no password hash
// field at all, so the secret cannot leak through serialization.
type PublicUser struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	MonthlyIncome *float64    `json:"monthlyIncome,omitempty"`
	Active        bool        `json:"active"`
	Preferences   Preferences `json:"preferences"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Public strips the password hash before the record leaves the auth core.
// Every public-facing return path passes through this projection.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:            u.ID.String(),
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		MonthlyIncome: u.MonthlyIncome,
		Active:        u.Active,
		Preferences:   u.Preferences,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// NormalizeEmail canonicalizes an email for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository manages user persistence. Create must be atomic: a
// concurrent duplicate registration is rejected by the store's unique
// constraint and surfaces as ErrDuplicateEmail.
type UserRepository interface {
	// Create stores a new user and returns the stored record.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *User) (*User, error)

	// GetByID retrieves a user by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
