// Package errors provides the sentinel domain errors shared by every module.
// Use cases wrap these sentinels and HTTP handlers map them to status codes.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated principal's role lacks the required permission.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState indicates the operation does not apply to the resource's current
	// state (e.g., deactivating an already inactive record).
	ErrInvalidState = errors.New("invalid state")

	// ErrTooManyRequests indicates the caller exceeded a rate limit.
	ErrTooManyRequests = errors.New("too many requests")

	// ErrConfiguration indicates the process was started with unusable configuration.
	// It is returned during startup only and is never mapped to an HTTP response.
	ErrConfiguration = errors.New("configuration error")
)

// New returns a module-level error that wraps none of the sentinels.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message, keeping err in the chain so Is still matches the sentinel.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether err wraps target. Handlers use it to pick a status code.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
