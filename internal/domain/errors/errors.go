package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	// ErrInvalidKey means the presented key's digest matched no stored row.
	ErrInvalidKey = errors.New("invalid api key")
	// ErrDeactivated means the key row exists but active=false.
	ErrDeactivated = errors.New("api key deactivated")
	// ErrExpired means the key's expiry has passed.
	ErrExpired = errors.New("api key expired")
	// ErrRateLimited means the tier ceiling was exceeded in this window.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrNotFound covers both missing rows and ownership mismatches so key
	// existence cannot be enumerated by other users.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict covers invalid transitions such as a double suspend.
	ErrConflict = errors.New("conflicting state")
	// ErrServiceUnavailable means a storage timeout; admission fails closed.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrInvalidInput covers malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized covers missing or bad caller credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden covers role gate failures on admin surfaces.
	ErrForbidden = errors.New("forbidden")
)

// AppError represents an application error with an HTTP status
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func InvalidKey(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrInvalidKey)
}

func Deactivated(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrDeactivated)
}

func Expired(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrExpired)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrConflict)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

func ServiceUnavailable(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message, ErrServiceUnavailable)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal server error", err)
}

// RateLimitError is a denied admission decision. It is a distinct category
// from auth failures so clients can implement backoff on 429s.
type RateLimitError struct {
	Limit             int
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit of %d per minute exceeded, retry after %ds", e.Limit, e.RetryAfterSeconds)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// RateLimited creates a denied admission error with a retry hint.
func RateLimited(limit, retryAfterSeconds int) *RateLimitError {
	return &RateLimitError{Limit: limit, RetryAfterSeconds: retryAfterSeconds}
}
