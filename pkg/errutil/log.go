// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

// Package errutil bridges structured oops errors into slog output.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error at error severity with structured context if it's
// an oops error. For oops errors it extracts the message, code, context,
// and stacktrace. For standard errors it logs the error string.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		if st := oopsErr.Stacktrace(); st != "" {
			attrs = append(attrs, "stacktrace", st)
		}
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, "error", err)
	}
}
