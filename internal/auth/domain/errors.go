package domain

import (
	"github.com/allisson/careportal/internal/errors"
)

// Authentication and user management errors.
//
// Every credential or session failure wraps ErrUnauthorized so the HTTP layer returns
// the same generic body whichever check failed.
var (
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	ErrEmailAlreadyExists = errors.Wrap(errors.ErrConflict, "email already exists")

	ErrUsernameAlreadyExists = errors.Wrap(errors.ErrConflict, "username already exists")

	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	ErrUserNotVerified = errors.Wrap(errors.ErrUnauthorized, "user is not verified")

	ErrInvalidSession = errors.Wrap(errors.ErrUnauthorized, "invalid session token")

	ErrSessionExpired = errors.Wrap(errors.ErrUnauthorized, "session expired")

	ErrInvalidVerificationToken = errors.Wrap(errors.ErrInvalidInput, "invalid or expired verification token")

	ErrUnknownRole = errors.Wrap(errors.ErrInvalidInput, "unknown role")
)
