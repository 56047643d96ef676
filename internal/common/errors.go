package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflicting resource state")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternal      = errors.New("internal error")
	ErrDatabase      = errors.New("database error")
	ErrValidation    = errors.New("validation failed")
	ErrMisconfigured = errors.New("backend misconfigured")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ExternalServiceError is a non-success response from the AI completion
// service. StatusCode carries the upstream HTTP status when one was
// observed (429 rate limit and 402 payment required matter to callers);
// zero means the request never produced a status (network error, timeout).
type ExternalServiceError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("ai service status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ai service error: %s", e.Message)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Cause
}

func NewExternalServiceError(statusCode int, message string, cause error) *ExternalServiceError {
	return &ExternalServiceError{StatusCode: statusCode, Message: message, Cause: cause}
}
