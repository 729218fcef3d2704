// Package apperror defines the errors that cross the HTTP boundary.
// Handlers and middleware return *AppError; anything else renders as a 500.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// MessageNotAuthorized is the only message a 403 ever carries, so clients
// cannot tell a cross-tenant denial from a missing permission.
const MessageNotAuthorized = "not authorized"

// AppError is a client-facing error. Err holds the internal cause and is
// logged but never rendered.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a client-visible detail.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the internal cause.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Retryable reports whether the client may retry the same request.
// Only an unreachable collaborator qualifies; denials are final.
func (e *AppError) Retryable() bool {
	return e.Code == CodeUpstreamUnavailable
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NewValidation is a malformed request (400).
func NewValidation(message string) *AppError {
	return newError(http.StatusBadRequest, CodeValidation, message)
}

// NewUnauthorized is a missing or invalid credential (401).
func NewUnauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, CodeUnauthorized, message)
}

// NewForbidden is any authorization denial (403). The message is fixed;
// put the reason in the cause.
func NewForbidden() *AppError {
	return newError(http.StatusForbidden, CodeForbidden, MessageNotAuthorized)
}

// NewNotFound is a missing record (404).
func NewNotFound(entity string, id any) *AppError {
	return newError(http.StatusNotFound, CodeNotFound, entity+" not found").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewConflict is a lost concurrent update (409).
func NewConflict(message string) *AppError {
	return newError(http.StatusConflict, CodeConflict, message)
}

// NewInternal hides err behind a generic 500.
func NewInternal(err error) *AppError {
	return newError(http.StatusInternalServerError, CodeInternal, "Internal server error").WithCause(err)
}

// NewUpstreamUnavailable is a collaborator that could not be reached or timed out (503).
// component names the collaborator, e.g. "membership".
func NewUpstreamUnavailable(component string, err error) *AppError {
	return newError(http.StatusServiceUnavailable, CodeUpstreamUnavailable, "service temporarily unavailable").
		WithDetail("component", component).
		WithCause(err)
}

// AsAppError returns the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError reports whether err's chain holds an *AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// GetHTTPStatus returns the status for err, 500 for foreign errors.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func IsUpstreamUnavailable(err error) bool { return hasCode(err, CodeUpstreamUnavailable) }
func IsUnauthorized(err error) bool        { return hasCode(err, CodeUnauthorized) }
func IsForbidden(err error) bool           { return hasCode(err, CodeForbidden) }
func IsNotFound(err error) bool            { return hasCode(err, CodeNotFound) }

func hasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
