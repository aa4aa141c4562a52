// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when the store rejects a create because the
// email is already registered. The store's constraint is authoritative;
// callers must not substitute a read-then-write existence check for it.
var ErrDuplicateEmail = errors.New("email already registered")
