// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import "net/http"

// Kind is the machine-readable error category. Clients route on it;
// handlers map it to an HTTP status.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindUnauthorized Kind = "unauthorized"
	// KindConflict is reserved for an optimistic-lock upgrade on item rows.
	// The baseline engine is last-writer-wins and never returns it.
	KindConflict Kind = "conflict"
	KindInternal Kind = "internal"
)

// Error is the typed error services return. It carries the category plus a
// human-readable detail safe to show operators.
type Error struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Detail }

func InvalidInput(detail string) *Error { return &Error{Kind: KindInvalidInput, Detail: detail} }
func NotFound(detail string) *Error     { return &Error{Kind: KindNotFound, Detail: detail} }
func InvalidState(detail string) *Error { return &Error{Kind: KindInvalidState, Detail: detail} }
func Unauthorized(detail string) *Error { return &Error{Kind: KindUnauthorized, Detail: detail} }
func Conflict(detail string) *Error     { return &Error{Kind: KindConflict, Detail: detail} }
func Internal(detail string) *Error     { return &Error{Kind: KindInternal, Detail: detail} }

// Status maps an error kind to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Kind: KindInternal, Detail: msg}
}

// FromError builds the response envelope for a service error.
func FromError(e *Error) *APIError {
	return &APIError{Kind: e.Kind, Detail: e.Detail}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Kind   Kind              `json:"kind"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Kind: KindInvalidInput, Detail: "Validation failed", Fields: fields}
}
