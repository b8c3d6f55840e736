package httputil

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/careportal/internal/errors"
)

const (
	// DefaultPageLimit is the page size used when the limit parameter is omitted.
	DefaultPageLimit = 10
	// MaxPageLimit bounds the limit parameter.
	MaxPageLimit = 100
)

var (
	errInvalidOffset = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid offset parameter: must be a non-negative integer")
	errInvalidPage   = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid page parameter: must be a positive integer")
	errInvalidLimit  = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid limit parameter: must be between 1 and 100")
	errPageAndOffset = apperrors.Wrap(apperrors.ErrInvalidInput, "page and offset parameters are mutually exclusive")
)

// ParsePagination reads the limit parameter and either offset or a 1-based page,
// which the browser console sends. Page n maps to offset (n-1)*limit.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	limit = DefaultPageLimit
	if raw, ok := c.GetQuery("limit"); ok {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxPageLimit {
			return 0, 0, errInvalidLimit
		}
	}

	rawPage, hasPage := c.GetQuery("page")
	rawOffset, hasOffset := c.GetQuery("offset")

	switch {
	case hasPage && hasOffset:
		return 0, 0, errPageAndOffset
	case hasPage:
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			return 0, 0, errInvalidPage
		}
		return (page - 1) * limit, limit, nil
	case hasOffset:
		offset, err = strconv.Atoi(rawOffset)
		if err != nil || offset < 0 {
			return 0, 0, errInvalidOffset
		}
		return offset, limit, nil
	default:
		return 0, limit, nil
	}
}
