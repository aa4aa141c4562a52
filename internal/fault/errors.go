// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrRecordNotFound marks a persistence lookup that matched no record.
// Repositories wrap it so the classifier can resolve NOT_FOUND without
// inspecting driver types.
var ErrRecordNotFound = errors.New("record not found")

// HTTPError is a generic HTTP-shaped failure: an explicit status code and
// message without a taxonomy code. The classifier remaps it through the
// status→kind table.
type HTTPError struct {
	Status  int
	Message string
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// StorageError marks a persistence-layer failure whose cause is opaque to
// the caller. The classifier pattern-matches the underlying message when no
// structured driver error is available.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps a persistence failure with the operation that
// produced it.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// FieldViolations is a nested map of field name to either []string
// (violation messages) or another FieldViolations for nested fields.
type FieldViolations map[string]any

// ValidationError carries field-level validation violations. Violations may
// nest; Flatten joins nested field paths with dots.
type ValidationError struct {
	Violations FieldViolations
}

// NewValidationError creates a ValidationError.
func NewValidationError(violations FieldViolations) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	flat := e.Flatten()
	fields := make([]string, 0, len(flat))
	for f := range flat {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

// Flatten resolves nesting into a flat map of dot-joined field paths to
// ordered violation message lists.
func (e *ValidationError) Flatten() map[string][]string {
	out := make(map[string][]string)
	flattenInto(out, "", e.Violations)
	return out
}

func flattenInto(out map[string][]string, prefix string, v FieldViolations) {
	for field, val := range v {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		switch vv := val.(type) {
		case []string:
			out[key] = append(out[key], vv...)
		case string:
			out[key] = append(out[key], vv)
		case FieldViolations:
			flattenInto(out, key, vv)
		case map[string]any:
			flattenInto(out, key, vv)
		}
	}
}
