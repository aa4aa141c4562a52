// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

// Package requestid assigns and propagates per-request correlation
// identifiers. An id lives for exactly one request: it is read from the
// inbound X-Request-ID header when present, generated otherwise, and is
// attached to the response, every log line, and every error body produced
// while serving that request.
package requestid

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Header is the correlation id header honored on requests and always set
// on responses.
const Header = "X-Request-ID"

type ctxKey struct{}

// New generates a fresh correlation id.
func New() string {
	return ulid.Make().String()
}

// WithContext returns a context carrying the correlation id.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the correlation id for the request, or "" if none
// was assigned.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
