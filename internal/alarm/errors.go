package alarm

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes alarm errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates a missing or malformed field. Nothing was mutated.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNotFound indicates the referenced alarm id is not in the store.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodePermission indicates the capture device was denied.
	ErrCodePermission ErrorCode = "PERMISSION"

	// ErrCodePersistence indicates a snapshot save or load failed.
	// The in-memory mutation that triggered a failed save is kept.
	ErrCodePersistence ErrorCode = "PERSISTENCE"
)

// Error is the error type returned by alarm operations.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ID identifies the affected alarm, if any.
	ID ID

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ID != "" {
		msg = fmt.Sprintf("%s (alarm=%s)", msg, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates an Error for a rejected input field.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates an Error for an unknown alarm id.
func NewNotFoundError(id ID) *Error {
	return &Error{Code: ErrCodeNotFound, Message: "alarm not found", ID: id}
}

// NewPermissionError creates an Error for a denied capture device.
func NewPermissionError(err error) *Error {
	return &Error{Code: ErrCodePermission, Message: "capture device access denied", Err: err}
}

// NewPersistenceError wraps a Persister failure.
func NewPersistenceError(op string, err error) *Error {
	return &Error{Code: ErrCodePersistence, Message: op + " failed", Err: err}
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsPermission reports whether err is a capture permission error.
func IsPermission(err error) bool { return CodeOf(err) == ErrCodePermission }

// IsPersistence reports whether err is a persistence error.
func IsPersistence(err error) bool { return CodeOf(err) == ErrCodePersistence }
