// Package errors defines the application error taxonomy shared by the usecase and delivery layers.
package errors

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Predefined error types
var (
	// Credential errors. Unknown username and wrong password share one value.
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid username or password",
		"",
	)

	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"Username is already registered",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	ErrTooManyAttempts = NewBaseError(
		http.StatusTooManyRequests,
		"TOO_MANY_ATTEMPTS",
		"Too many failed sign-in attempts, try again later",
		"",
	)

	// Server faults. Messages stay generic on purpose.
	ErrPasswordHashFailed = NewBaseError(
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"Internal server error",
		"",
	)

	ErrTokenSigningFailed = NewBaseError(
		http.StatusInternalServerError,
		"TOKEN_SIGNING_FAILED",
		"Internal server error",
		"",
	)

	ErrStoreFailure = NewBaseError(
		http.StatusInternalServerError,
		"STORE_FAILURE",
		"Internal server error",
		"",
	)

	// ErrCredentialIntegrity marks a stored password hash that cannot be parsed.
	ErrCredentialIntegrity = NewBaseError(
		http.StatusInternalServerError,
		"CREDENTIAL_INTEGRITY_FAILURE",
		"Internal server error",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// StoreError represents a user store fault, implementing the AppError interface.
// errors.Is(err, ErrStoreFailure) holds for any StoreError.
type StoreError struct {
	err     error
	details string
}

// NewStoreError wraps a store-layer fault.
func NewStoreError(err error, details string) AppError {
	return &StoreError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *StoreError) Error() string {
	return errors.Wrap(e.err, "user store operation failed").Error()
}

// Unwrap exposes the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.err
}

// Is matches ErrStoreFailure.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

// HTTPCode returns the HTTP status code
func (e *StoreError) HTTPCode() int {
	return ErrStoreFailure.HTTPCode()
}

// ErrorCode returns the business error code
func (e *StoreError) ErrorCode() string {
	return ErrStoreFailure.ErrorCode()
}

// Message returns the user-friendly error message
func (e *StoreError) Message() string {
	return ErrStoreFailure.Message()
}

// Details returns detailed error information
func (e *StoreError) Details() string {
	return e.details
}

// TooManyAttemptsError is returned while a username is locked out.
type TooManyAttemptsError struct {
	RetryAfter time.Duration
}

// NewTooManyAttemptsError creates a lockout error carrying the remaining lock time.
func NewTooManyAttemptsError(retryAfter time.Duration) *TooManyAttemptsError {
	return &TooManyAttemptsError{RetryAfter: retryAfter}
}

func (e *TooManyAttemptsError) Error() string {
	return ErrTooManyAttempts.Error()
}

// Is matches ErrTooManyAttempts.
func (e *TooManyAttemptsError) Is(target error) bool {
	return target == ErrTooManyAttempts
}

func (e *TooManyAttemptsError) HTTPCode() int     { return ErrTooManyAttempts.HTTPCode() }
func (e *TooManyAttemptsError) ErrorCode() string { return ErrTooManyAttempts.ErrorCode() }
func (e *TooManyAttemptsError) Message() string   { return ErrTooManyAttempts.Message() }
func (e *TooManyAttemptsError) Details() string   { return "" }

// RetryAfterSeconds renders the lock time for a Retry-After header, rounded up.
func (e *TooManyAttemptsError) RetryAfterSeconds() string {
	secs := int64((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}

	return strconv.FormatInt(secs, 10)
}
