package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound                 = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized             = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden                = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrValidation               = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal                 = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss                = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrMalformedTime            = New("MALFORMED_TIME", http.StatusBadRequest, "time must be a 30 minute step between 08:00 and 20:00")
	ErrEmptyOptionSet           = New("EMPTY_OPTION_SET", http.StatusUnprocessableEntity, "group has no options")
	ErrCombinationSpaceTooLarge = New("COMBINATION_SPACE_TOO_LARGE", http.StatusUnprocessableEntity, "too many timetable combinations")
	ErrRankingPending           = New("RANKING_PENDING", http.StatusAccepted, "ranking is still running")
	ErrRankingFailed            = New("RANKING_FAILED", http.StatusUnprocessableEntity, "ranking failed")
)

// Is matches errors by code so clones and wrapped copies compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
