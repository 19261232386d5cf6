// Package domainerrors defines the typed error taxonomy shared by all
// services. Services return these from their public operations; the HTTP
// layer translates codes to statuses and never exposes wrapped causes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a stable, externally visible error class.
type Code string

const (
	CodeValidation          Code = "validation_failed"
	CodeConflict            Code = "conflict"
	CodeInvalidCredentials  Code = "invalid_credentials"
	CodeOAuthExchange       Code = "oauth_exchange_failed"
	CodeOAuthVerification   Code = "oauth_verification_failed"
	CodeIncompleteIdentity  Code = "incomplete_identity"
	CodeInvalidToken        Code = "invalid_token"
	CodeNotFound            Code = "not_found"
	CodeUserNotFound        Code = "user_not_found"
	CodeUpstreamUnavailable Code = "upstream_unavailable"
	CodeRateLimited         Code = "rate_limited"
	CodeInternal            Code = "internal_error"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
// The cause is for logs only; WriteError never serializes it.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and caller-safe message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err is (or wraps) a domain error with the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// untyped errors so unknown failures never leak a more permissive class.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
