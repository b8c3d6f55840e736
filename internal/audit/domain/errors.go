package domain

import (
	"github.com/allisson/careportal/internal/errors"
)

// Audit trail errors.
var (
	// ErrSignatureInvalid indicates a stored record does not match its signature.
	ErrSignatureInvalid = errors.New("audit log signature is invalid")

	// ErrInvalidDateRange indicates created_at_from is after created_at_to.
	ErrInvalidDateRange = errors.Wrap(errors.ErrInvalidInput, "created_at_from must not be after created_at_to")
)
