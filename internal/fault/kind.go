// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package fault

import "net/http"

// Stable error codes. These are wire contract: clients switch on them and
// they must never change meaning between releases.
const (
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeInvalidCredentials      = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidToken            = "AUTH_INVALID_TOKEN"
	CodeTokenExpired            = "AUTH_TOKEN_EXPIRED"
	CodeInsufficientPermissions = "AUTH_INSUFFICIENT_PERMISSIONS"
	CodeNotFound                = "NOT_FOUND"
	CodeRequestTimeout          = "REQUEST_TIMEOUT"
	CodeDuplicateEntry          = "DB_DUPLICATE_ENTRY"
	CodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	CodeForeignKeyViolation     = "DB_FOREIGN_KEY_VIOLATION"
	CodeConstraintViolation     = "DB_CONSTRAINT_VIOLATION"
	CodeQueryFailed             = "DB_QUERY_FAILED"
	CodeConnectionError         = "DB_CONNECTION_ERROR"
	CodeServiceUnavailable      = "SERVICE_UNAVAILABLE"
	CodeInternal                = "INTERNAL_SERVER_ERROR"
)

// Kind is one entry in the error taxonomy: a stable code, an HTTP status,
// an internal message for logs, and a distinct user-safe message for
// clients. The two messages must never be conflated in output.
type Kind struct {
	Code     string
	Status   int
	Internal string
	Public   string
}

// Registry is the process-wide error taxonomy, read-only after startup.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry builds the default taxonomy.
func NewRegistry() *Registry {
	kinds := []Kind{
		{CodeValidationFailed, http.StatusBadRequest,
			"request body failed field validation",
			"One or more fields are invalid."},
		{CodeInvalidCredentials, http.StatusUnauthorized,
			"credential verification failed",
			"Invalid email or password."},
		{CodeInvalidToken, http.StatusUnauthorized,
			"token verification failed",
			"Authentication token is invalid."},
		{CodeTokenExpired, http.StatusUnauthorized,
			"token expiry has passed",
			"Authentication token is invalid."},
		{CodeInsufficientPermissions, http.StatusForbidden,
			"subject lacks permission for this operation",
			"You do not have permission to perform this action."},
		{CodeNotFound, http.StatusNotFound,
			"requested record does not exist",
			"The requested resource was not found."},
		{CodeRequestTimeout, http.StatusRequestTimeout,
			"request deadline exceeded",
			"The request timed out. Please try again."},
		{CodeDuplicateEntry, http.StatusConflict,
			"unique constraint rejected the write",
			"A record with these details already exists."},
		{CodeRateLimitExceeded, http.StatusTooManyRequests,
			"client exceeded request rate limit",
			"Too many requests. Please slow down."},
		{CodeForeignKeyViolation, http.StatusBadRequest,
			"foreign key constraint rejected the write",
			"The request references data that does not exist."},
		{CodeConstraintViolation, http.StatusBadRequest,
			"check constraint rejected the write",
			"The request contains data that is not allowed."},
		{CodeQueryFailed, http.StatusBadRequest,
			"database query failed",
			"The request could not be processed."},
		{CodeConnectionError, http.StatusInternalServerError,
			"database connection failed",
			"A temporary problem occurred. Please try again."},
		{CodeServiceUnavailable, http.StatusServiceUnavailable,
			"service is not ready to accept requests",
			"The service is temporarily unavailable."},
		{CodeInternal, http.StatusInternalServerError,
			"unhandled internal error",
			"Something went wrong. Please try again later."},
	}

	m := make(map[string]Kind, len(kinds))
	for _, k := range kinds {
		m[k.Code] = k
	}
	return &Registry{kinds: m}
}

// Lookup returns the kind for a code.
func (r *Registry) Lookup(code string) (Kind, bool) {
	k, ok := r.kinds[code]
	return k, ok
}

// Internal returns the catch-all kind.
func (r *Registry) Internal() Kind {
	return r.kinds[CodeInternal]
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	return len(r.kinds)
}
