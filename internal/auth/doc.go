// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

// Package auth provides the authentication core: password hashing, signed
// token issuance and verification, and the registration/login/refresh
// orchestration on top of a user store.
package auth
