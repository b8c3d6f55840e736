package domain

import (
	"github.com/allisson/careportal/internal/errors"
)

// Doctor directory errors.
var (
	ErrDoctorNotFound = errors.Wrap(errors.ErrNotFound, "doctor not found")

	ErrDoctorEmailAlreadyExists = errors.Wrap(errors.ErrConflict, "a doctor with this email address already exists")

	ErrDoctorCodeAlreadyExists = errors.Wrap(errors.ErrConflict, "doctor code already exists")

	ErrDoctorAlreadyInactive = errors.Wrap(errors.ErrInvalidState, "doctor is already deactivated")

	ErrDoctorAlreadyActive = errors.Wrap(errors.ErrInvalidState, "doctor is already active")

	ErrInvalidStatus = errors.Wrap(errors.ErrInvalidInput, "status must be Active, Inactive or All")

	ErrUnsupportedExportFormat = errors.Wrap(errors.ErrInvalidInput, "unsupported export format, supported formats: csv, json")
)
