// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package apperr defines the centralized error handling framework for Twinlook.

Every failure in the client is classified by origin rather than by Go type:

  - Transport: the request never produced an HTTP response (DNS, refused
    connection, broken pipe).
  - Server-reported: the backend answered with a non-2xx status and a
    message field.
  - Validation: the client refused to issue a request (empty required
    field, malformed embedding payload, self friend request), or a
    response failed schema validation at the network boundary.

Architecture:

  - AppError: A struct containing a machine-readable Code and a
    user-friendly Message.
  - Mapping: Explicit mapping between AppError and HTTP status codes,
    shared with the backend stub so both sides speak the same envelope.

Every error that leaves a feature module should be wrapped as an [AppError]
so the shell can surface a single, consistent notice.
*/
package apperr

import (
	"errors"
	"net/http"
)

// AppError is the canonical error type for the Twinlook client.
//
// It carries a machine-readable code, a client-safe message, the HTTP
// status that produced it (zero for transport and validation failures),
// and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for logging only and is never rendered to the user,
// so low-level transport details stay out of the notice dialog.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "TRANSPORT_ERROR").
	Code string `json:"code"`
	// Message is a human-readable description safe to show the user.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status, or 0 when no response exists.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// GenericMessage is the fallback notice shown when the backend reports a
// failure without a usable message field.
const GenericMessage = "An unexpected error occurred"

// # Client-Origin Errors

// Transport creates an [AppError] for a network-level failure: the request
// was issued but no HTTP response came back.
func Transport(cause error) *AppError {
	return &AppError{
		Code:    "TRANSPORT_ERROR",
		Message: GenericMessage,
		Cause:   cause,
	}
}

// ValidationError creates a client-side validation [AppError] with optional
// per-field details. It is raised before any network call is made, or when
// a server response fails schema validation at the decode boundary.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// FromResponse creates an [AppError] for a server-reported business error
// (non-2xx status). The backend's message field is preserved when present;
// otherwise the generic fallback is used, matching the original client's
// alert behavior.
func FromResponse(status int, code, message string) *AppError {
	if message == "" {
		message = GenericMessage
	}
	if code == "" {
		code = defaultCode(status)
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// defaultCode maps an HTTP status to a machine-readable code when the
// backend did not supply one.
func defaultCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "SERVER_ERROR"
	}
}

// # Server-Side Errors (backend stub)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Contest") // Returns "Contest not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Conflict creates a 409 [AppError] for duplicate resources.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side
// error. The cause is stored for logging but never sent to clients.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    GenericMessage,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// UserMessage returns the client-safe message for any error: the AppError
// message when one is present in the chain, the generic fallback otherwise.
func UserMessage(err error) string {
	if ae := As(err); ae != nil {
		return ae.Message
	}
	return GenericMessage
}
