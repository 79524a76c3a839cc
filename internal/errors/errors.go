// Package errors provides standardized domain errors with codes for the BookCrush API.
//
// Usage:
//
//	// In services - return typed errors
//	if count >= limit {
//	    return errors.SuggestionLimitExceeded("you already have 2 active suggestions")
//	}
//
//	// In handlers or tests - check with errors.Is
//	if errors.Is(err, errors.ErrDuplicateSuggestion) {
//	    ...
//	}
//
//	// Or use the Code directly
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    status := domainErr.HTTPStatus()
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTooManyRequests    Code = "TOO_MANY_REQUESTS"

	// Club access.
	CodeAccessDenied     Code = "ACCESS_DENIED"
	CodeInsufficientRole Code = "INSUFFICIENT_ROLE"

	// Suggestions.
	CodeDuplicateSuggestion     Code = "DUPLICATE_SUGGESTION"
	CodeSuggestionLimitExceeded Code = "SUGGESTION_LIMIT_EXCEEDED"

	// Voting cycle.
	CodeInvalidWindow       Code = "INVALID_WINDOW"
	CodeBookAlreadySelected Code = "BOOK_ALREADY_SELECTED"
	CodeCycleAlreadyActive  Code = "CYCLE_ALREADY_ACTIVE"
	CodeNoCycleActive       Code = "NO_CYCLE_ACTIVE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeDuplicateSuggestion:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeAccessDenied, CodeInsufficientRole, CodeSuggestionLimitExceeded:
		return http.StatusForbidden
	case CodeValidation, CodeInvalidWindow, CodeBookAlreadySelected, CodeCycleAlreadyActive, CodeNoCycleActive:
		return http.StatusBadRequest
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrTooManyRequests    = &Error{Code: CodeTooManyRequests, Message: "too many requests"}

	ErrAccessDenied            = &Error{Code: CodeAccessDenied, Message: "access denied"}
	ErrInsufficientRole        = &Error{Code: CodeInsufficientRole, Message: "insufficient role"}
	ErrDuplicateSuggestion     = &Error{Code: CodeDuplicateSuggestion, Message: "duplicate suggestion"}
	ErrSuggestionLimitExceeded = &Error{Code: CodeSuggestionLimitExceeded, Message: "suggestion limit exceeded"}
	ErrInvalidWindow           = &Error{Code: CodeInvalidWindow, Message: "invalid voting window"}
	ErrBookAlreadySelected     = &Error{Code: CodeBookAlreadySelected, Message: "book already selected"}
	ErrCycleAlreadyActive      = &Error{Code: CodeCycleAlreadyActive, Message: "voting cycle already active"}
	ErrNoCycleActive           = &Error{Code: CodeNoCycleActive, Message: "no voting cycle active"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// InvalidCredentials creates an invalid credentials error.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// AccessDenied creates an error for callers outside the club.
func AccessDenied(msg string) *Error {
	return &Error{Code: CodeAccessDenied, Message: msg}
}

// InsufficientRole creates an error for members lacking OWNER or ADMIN.
func InsufficientRole(msg string) *Error {
	return &Error{Code: CodeInsufficientRole, Message: msg}
}

// DuplicateSuggestion creates a duplicate active suggestion error.
func DuplicateSuggestion(msg string) *Error {
	return &Error{Code: CodeDuplicateSuggestion, Message: msg}
}

// SuggestionLimitExceeded creates a per-user suggestion cap error.
func SuggestionLimitExceeded(msg string) *Error {
	return &Error{Code: CodeSuggestionLimitExceeded, Message: msg}
}

// InvalidWindow creates an invalid voting window error.
func InvalidWindow(msg string) *Error {
	return &Error{Code: CodeInvalidWindow, Message: msg}
}

// BookAlreadySelected creates an error for clubs that already have a current book.
func BookAlreadySelected(msg string) *Error {
	return &Error{Code: CodeBookAlreadySelected, Message: msg}
}

// CycleAlreadyActive creates an error for clubs already in a voting cycle.
func CycleAlreadyActive(msg string) *Error {
	return &Error{Code: CodeCycleAlreadyActive, Message: msg}
}

// NoCycleActive creates an error for clubs without an open voting cycle.
func NoCycleActive(msg string) *Error {
	return &Error{Code: CodeNoCycleActive, Message: msg}
}
