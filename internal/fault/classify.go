// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package fault

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/debtwise/debtwise/pkg/errutil"
)

// statusToCode remaps generic HTTP-shaped failures onto taxonomy codes.
var statusToCode = map[int]string{
	http.StatusBadRequest:      CodeValidationFailed,
	http.StatusUnauthorized:    CodeInvalidToken,
	http.StatusForbidden:       CodeInsufficientPermissions,
	http.StatusNotFound:        CodeNotFound,
	http.StatusRequestTimeout:  CodeRequestTimeout,
	http.StatusConflict:        CodeDuplicateEntry,
	http.StatusTooManyRequests: CodeRateLimitExceeded,
}

// Classifier turns any failure into a canonical Response. It is the only
// component permitted to decide the client-visible message and status.
type Classifier struct {
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewClassifier creates a Classifier. The logging sink is injected so tests
// can substitute a capturing handler.
func NewClassifier(registry *Registry, logger *slog.Logger) (*Classifier, error) {
	if registry == nil {
		return nil, oops.Errorf("registry is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Classifier{
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Classify resolves a failure to its taxonomy kind, stamps the request path
// and correlation id, and logs at a severity derived from the resolved
// status. The dispatch order is a contract: a failure that structurally
// satisfies more than one category resolves to the first match.
func (c *Classifier) Classify(err error, meta RequestMeta) *Response {
	kind, details := c.resolve(err)

	resp := &Response{
		Success:    false,
		StatusCode: kind.Status,
		ErrorCode:  kind.Code,
		Message:    kind.Public,
		Details:    details,
		Timestamp:  c.now().UTC().Format(time.RFC3339),
		Path:       meta.Path,
		RequestID:  meta.RequestID,
	}

	c.log(err, kind, resp, meta)
	return resp
}

func (c *Classifier) resolve(err error) (Kind, map[string][]string) {
	// Failures tagged with a registered code pass through as-is. Expired
	// tokens are externally indistinguishable from invalid ones: clients
	// see AUTH_INVALID_TOKEN either way.
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, isString := oopsErr.Code().(string); isString {
			if kind, found := c.registry.Lookup(code); found {
				if kind.Code == CodeTokenExpired {
					kind, _ = c.registry.Lookup(CodeInvalidToken)
				}
				return kind, nil
			}
		}
	}

	// HTTP-shaped failures remap through the status table.
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return c.kindForStatus(httpErr.Status), nil
	}

	// Structured driver errors carry SQLSTATE codes; preferred over
	// message matching when available.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return c.kindForSQLState(pgErr.Code), nil
	}

	// Record-not-found is structurally distinguishable from query failures
	// and resolves before any message matching.
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrRecordNotFound) {
		kind, _ := c.registry.Lookup(CodeNotFound)
		return kind, nil
	}

	// Opaque persistence failures fall back to message matching.
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return c.kindForStorageMessage(storageErr), nil
	}

	// Field validation flattens into per-field violation lists.
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		kind, _ := c.registry.Lookup(CodeValidationFailed)
		return kind, valErr.Flatten()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		kind, _ := c.registry.Lookup(CodeRequestTimeout)
		return kind, nil
	}

	return c.registry.Internal(), nil
}

func (c *Classifier) kindForStatus(status int) Kind {
	code, ok := statusToCode[status]
	if !ok {
		return c.registry.Internal()
	}
	kind, _ := c.registry.Lookup(code)
	return kind
}

// kindForSQLState maps SQLSTATE classes onto taxonomy kinds. Constraint
// rejections surface as 400s here: a write that a constraint refused is a
// bad request, not a server fault.
func (c *Classifier) kindForSQLState(code string) Kind {
	var resolved string
	switch {
	case code == pgerrcode.UniqueViolation:
		resolved = CodeDuplicateEntry
	case code == pgerrcode.ForeignKeyViolation:
		resolved = CodeForeignKeyViolation
	case code == pgerrcode.CheckViolation || code == pgerrcode.NotNullViolation:
		resolved = CodeConstraintViolation
	case pgerrcode.IsConnectionException(code):
		kind, _ := c.registry.Lookup(CodeConnectionError)
		return kind
	default:
		resolved = CodeQueryFailed
	}
	kind, _ := c.registry.Lookup(resolved)
	kind.Status = http.StatusBadRequest
	return kind
}

// kindForStorageMessage pattern-matches driver message text. Fragile across
// backends, so it only runs when no structured signal was available.
func (c *Classifier) kindForStorageMessage(err *StorageError) Kind {
	msg := strings.ToLower(err.Error())

	var resolved string
	switch {
	case strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique"):
		resolved = CodeDuplicateEntry
	case strings.Contains(msg, "foreign key"):
		resolved = CodeForeignKeyViolation
	case strings.Contains(msg, "constraint") || strings.Contains(msg, "check"):
		resolved = CodeConstraintViolation
	case strings.Contains(msg, "connection") || strings.Contains(msg, "dial") ||
		strings.Contains(msg, "broken pipe"):
		kind, _ := c.registry.Lookup(CodeConnectionError)
		return kind
	default:
		resolved = CodeQueryFailed
	}
	kind, _ := c.registry.Lookup(resolved)
	kind.Status = http.StatusBadRequest
	return kind
}

// log records the classified failure. Severity follows the resolved status:
// server faults at error with stack detail, client faults at warning with
// request metadata only, everything else informational.
func (c *Classifier) log(err error, kind Kind, resp *Response, meta RequestMeta) {
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		logger := c.logger.With(
			"method", meta.Method,
			"path", meta.Path,
			"status", resp.StatusCode,
			"request_id", meta.RequestID,
		)
		errutil.LogError(logger, kind.Internal, err)
	case resp.StatusCode >= http.StatusBadRequest:
		c.logger.Warn(kind.Internal,
			"error", err.Error(),
			"method", meta.Method,
			"path", meta.Path,
			"user_agent", meta.UserAgent,
			"remote_addr", meta.RemoteAddr,
			"status", resp.StatusCode,
			"code", kind.Code,
			"message", kind.Public,
			"request_id", meta.RequestID,
		)
	default:
		c.logger.Info(kind.Internal,
			"status", resp.StatusCode,
			"code", kind.Code,
			"path", meta.Path,
			"request_id", meta.RequestID,
		)
	}
}
