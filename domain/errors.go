package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
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

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError reports a malformed or missing request field.
func ValidationError(message string) *Error {
	return NewError(ErrCodeValidation, message)
}

// Common domain errors.
var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "User with this email does not exist.")
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "Not Found")
	ErrSessionNotFound    = NewError(ErrCodeUnauthorized, "Token is invalid or expired")
	ErrEmailTaken         = NewError(ErrCodeConflict, "Email already registered")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "No active account found with the given credentials")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "Unauthorized")
	ErrInvalidResetLink   = NewError(ErrCodeInvalid, "Invalid reset link.")
	ErrPasswordMismatch   = NewError(ErrCodeInvalid, "Passwords do not match.")
	ErrInvalidPayload     = NewError(ErrCodeValidation, "invalid payload")
	ErrInvalidStatus      = NewError(ErrCodeValidation, "status must be one of IN_PROGRESS, COMPLETED")
)

// CodeOf returns the classification of err, or ErrCodeInternal for errors
// that did not originate in the domain.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}

// IsDomainError reports whether err carries the given code.
func IsDomainError(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
