package domain

import (
	"github.com/allisson/careportal/internal/errors"
)

// Assessment errors.
var (
	ErrAssessmentNotFound = errors.Wrap(errors.ErrNotFound, "assessment not found")
)
