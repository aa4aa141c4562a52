// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

// Package fault is the failure-unification layer. Every error raised
// anywhere in the request pipeline converges on Classifier, which resolves
// it against a fixed registry of error kinds and produces the one canonical
// response shape clients ever see. Internal detail (driver messages, stack
// traces) stays in the logs; clients get the kind's user-safe message only.
package fault
