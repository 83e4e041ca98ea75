package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a failure class. Codes are stable strings so they can
// be logged, matched in tests, and mapped to exit codes without string
// matching on messages.
type Code string

// Session and authorization failure codes
const (
	// CodeTokenMalformed means the bearer token could not be parsed:
	// not three base64url segments, not JSON, or missing mandatory
	// claims. Always fatal to the current refresh attempt.
	CodeTokenMalformed Code = "AUTH_TOKEN_MALFORMED"

	// CodeNoWorkspace means the token parsed but contained no
	// workspace block (no top-level object claim with a roles field).
	CodeNoWorkspace Code = "AUTH_NO_WORKSPACE"

	// CodeNoValidWorkspace means workspace blocks exist but none was
	// usable: no explicit preference matched and no block carries
	// simulator permissions.
	CodeNoValidWorkspace Code = "AUTH_NO_VALID_WORKSPACE"

	// CodeRefreshNetwork means the refresh endpoint call failed at
	// the transport or HTTP level.
	CodeRefreshNetwork Code = "AUTH_REFRESH_NETWORK"

	// CodeUnauthorizedRequest means an API call was denied with 401
	// and the single refresh-and-retry did not recover it.
	CodeUnauthorizedRequest Code = "AUTH_UNAUTHORIZED_REQUEST"

	// CodeSessionExpired means the session ended while an operation
	// was in flight; the operation's result was discarded.
	CodeSessionExpired Code = "AUTH_SESSION_EXPIRED"

	// CodeInvalidCredentials means login or registration was rejected
	// by the platform.
	CodeInvalidCredentials Code = "AUTH_INVALID_CREDENTIALS"
)

// CLI support failure codes
const (
	CodeConfigInvalid   Code = "CONFIG_INVALID"
	CodeCredentialStore Code = "CREDENTIAL_STORE_FAILED"
)

// Error is a coded error with optional structured context and cause.
type Error struct {
	// Code is the failure class (e.g. AUTH_TOKEN_MALFORMED)
	Code Code

	// Message is a human-readable description
	Message string

	// Context provides additional details about the failure
	Context map[string]any

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// New creates a coded error without a cause.
func New(code Code, message string, context map[string]any) *Error {
	return &Error{Code: code, Message: message, Context: context}
}

// Wrap creates a coded error around an existing error.
func Wrap(code Code, message string, cause error, context map[string]any) *Error {
	return &Error{Code: code, Message: message, Context: context, Cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given
// code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or an empty Code if err is
// not a coded error.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}
