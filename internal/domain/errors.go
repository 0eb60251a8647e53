package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an error independently of the transport.
type ErrorCode string

const (
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error is a classified error. Details carries per-field messages for
// validation failures.
type Error struct {
	Code    ErrorCode
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by code and message so that sentinel errors
// keep working after being wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError attaches a classification to an existing error.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ValidationError reports every invalid field at once.
func ValidationError(details ...string) *Error {
	return &Error{Code: ErrCodeInvalid, Message: "Invalid input", Details: details}
}

var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "User not found")
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "Todo not found")
	ErrUserExists         = NewError(ErrCodeConflict, "User already exists")
	ErrEmailTaken         = NewError(ErrCodeConflict, "Email already in use")
	ErrUsernameTaken      = NewError(ErrCodeConflict, "Username already in use")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "Invalid credentials")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "Token is not valid or expired")
)

// CodeOf returns the classification of err, or ErrCodeInternal for
// unclassified errors.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given classification.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
