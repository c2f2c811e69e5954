// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error taxonomy for the API.

Every failure a service can produce maps to exactly one machine-readable
[Code] and one HTTP status. Handlers never build status codes by hand; they
pass the error to respond.Error, which reads the [*AppError] in the chain.

Taxonomy:

  - VALIDATION_ERROR (400): missing or malformed input.
  - INVALID_CREDENTIALS (401/400): password did not match.
  - UNAUTHORIZED (401): missing, invalid, expired or superseded token.
  - NOT_FOUND (404), CONFLICT (409), RATE_LIMITED (429).
  - UPLOAD_FAILED / INTERNAL_ERROR (500).
  - SERVICE_UNAVAILABLE (503): a collaborator timed out; safe to retry.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error identifier.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeUploadFailed       Code = "UPLOAD_FAILED"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeUnavailable        Code = "SERVICE_UNAVAILABLE"
)

// AppError is the canonical error type for the API.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier.
	Code Code `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Retryable marks failures caused by an unavailable collaborator.
	Retryable bool `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors.
	Details []FieldError `json:"errors,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// WithStatus returns a copy of e answering with a different HTTP status.
func (e *AppError) WithStatus(status int) *AppError {
	clone := *e
	clone.HTTPStatus = status
	return &clone
}

// WithCause returns a copy of e carrying cause for server-side logging.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// # Client Errors (4xx)

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// InvalidCredentials creates a 401 [AppError] for a password mismatch.
func InvalidCredentials(msg string) *AppError {
	return &AppError{
		Code:       CodeInvalidCredentials,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
		Retryable:  true,
	}
}

// # Server Errors (5xx)

// UploadFailed creates a 500 [AppError] for a failed media upload.
func UploadFailed(msg string, cause error) *AppError {
	return &AppError{
		Code:       CodeUploadFailed,
		Message:    msg,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Unavailable creates a retryable 503 [AppError] for a collaborator that did
// not answer in time.
func Unavailable(cause error) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    "Service temporarily unavailable, please retry",
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
		Cause:      cause,
	}
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code Code) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}

// IsNotFound reports whether err is a NOT_FOUND [AppError].
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsRetryable reports whether err is safe to retry.
func IsRetryable(err error) bool {
	ae := As(err)
	return ae != nil && ae.Retryable
}
