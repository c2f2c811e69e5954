// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// Input is validated once at the service boundary, before any lookup or
// upload runs. Each field reports at most one problem: once a rule fails
// for a field, later rules on that field are skipped.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
)

const msgValidationFailed = "Validation failed"

var (
	// usernamePattern matches canonical usernames: lowercase letters, digits, '_' and '.'.
	usernamePattern = regexp.MustCompile(`^[\p{Ll}\p{Lo}\p{Nd}_.]+$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator collects field errors. It is not safe for concurrent use;
// create one per operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	return v.check(field, strings.TrimSpace(value) == "", "This field is required")
}

// MaxLen fails if the value has more than max characters.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	return v.check(field, utf8.RuneCountInString(value) > max, fmt.Sprintf("Maximum %d characters", max))
}

// MaxBytes fails if the UTF-8 encoding is longer than max bytes.
// bcrypt only reads the first 72 bytes of a password.
func (v *Validator) MaxBytes(field, value string, max int) *Validator {
	return v.check(field, len(value) > max, fmt.Sprintf("Maximum %d bytes", max))
}

// Email fails unless value is a bare address such as "alice@x.com".
// Display-name forms like "Alice <alice@x.com>" are rejected.
func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	return v.check(field, err != nil || address.Address != value, "Must be a valid email address")
}

// Username fails if the canonical username contains anything other than
// lowercase letters, digits, underscores or dots.
func (v *Validator) Username(field, value string) *Validator {
	return v.check(field, !usernamePattern.MatchString(value), "May contain only lowercase letters, digits, '_' and '.'")
}

// Custom adds message for field when failed is true.
//
//	v.Custom("avatar", input.Avatar == nil, "Avatar file is required")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	return v.check(field, failed, message)
}

// HasErrors reports whether any rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// Err returns a VALIDATION_ERROR carrying every collected field error, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError(msgValidationFailed, v.errs...)
}

func (v *Validator) check(field string, failed bool, message string) *Validator {
	if !failed || v.hasField(field) {
		return v
	}
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
	return v
}

func (v *Validator) hasField(field string) bool {
	return slices.ContainsFunc(v.errs, func(fe apperr.FieldError) bool { return fe.Field == field })
}

// RequiredError builds a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError(msgValidationFailed, apperr.FieldError{Field: field, Message: message})
}
