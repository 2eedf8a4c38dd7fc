// Package errors provides structured error types for dealprep.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the adapters
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Taxonomy
//
// Only two families ever reach a caller of the aggregation service:
//
//   - CONFIGURATION_ERROR: unknown environment name or invalid config. Fatal at startup.
//   - UNKNOWN_ENDPOINT: a logical endpoint the active profile does not define.
//     This is a programming error.
//
// TRANSPORT_ERROR and MALFORMED_RESPONSE are produced by the proxy client and
// the adapters' schema checks, and are absorbed into fallback payloads.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "unknown environment %q", name)
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransport, origErr, "GET %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Setup errors
	ErrCodeConfiguration   Code = "CONFIGURATION_ERROR"
	ErrCodeUnknownEndpoint Code = "UNKNOWN_ENDPOINT"
	ErrCodeUnknownProvider Code = "UNKNOWN_PROVIDER"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidQuery  Code = "INVALID_QUERY"
	ErrCodeInvalidDomain Code = "INVALID_DOMAIN"

	// Upstream errors (recoverable, trigger fallback)
	ErrCodeTransport         Code = "TRANSPORT_ERROR"
	ErrCodeMalformedResponse Code = "MALFORMED_RESPONSE"
	ErrCodeMissingCredential Code = "MISSING_CREDENTIAL"
	ErrCodeRateLimited       Code = "RATE_LIMITED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It walks the whole chain, so a TRANSPORT_ERROR wrapping a RATE_LIMITED
// error matches both codes.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsRecoverable reports whether err belongs to the upstream family that an
// adapter answers with a fallback payload.
func IsRecoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeTransport, ErrCodeMalformedResponse, ErrCodeMissingCredential,
		ErrCodeRateLimited, ErrCodeInvalidQuery, ErrCodeInvalidDomain, ErrCodeInvalidInput:
		return true
	}
	return false
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
