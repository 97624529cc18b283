package errors

import (
	"errors"
	"fmt"
)

// Common error types for the seller dashboard
var (
	// Configuration errors
	ErrConfigUnavailable = errors.New("provider configuration unavailable")

	// Authentication errors
	ErrAuthRequired    = errors.New("authentication required")
	ErrRefreshRejected = errors.New("refresh token rejected")
	ErrInvalidToken    = errors.New("invalid token")

	// Authorization errors
	ErrAccessDenied = errors.New("access denied")

	// Business API errors
	ErrUnauthorized    = errors.New("unauthorized")
	ErrEnvelopeFailure = errors.New("request reported failure")

	// Form errors
	ErrValidation = errors.New("validation failed")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)

// APIError is a non-2xx response (or failed envelope) from a remote HTTP API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Unwrap maps 401 onto ErrUnauthorized so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	if e.Status == 401 {
		return ErrUnauthorized
	}
	return nil
}

// ValidationError is a local form validation failure. It is never sent to the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
