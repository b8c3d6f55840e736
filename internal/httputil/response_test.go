package httputil

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/careportal/internal/errors"
)

func TestHandleErrorGin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "not found",
			err:            apperrors.Wrap(apperrors.ErrNotFound, "doctor not found"),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"not_found","message":"The requested resource was not found"}`,
		},
		{
			name:           "conflict",
			err:            apperrors.ErrConflict,
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"error":"conflict","message":"A conflict occurred with existing data"}`,
		},
		{
			name:           "invalid input exposes message",
			err:            apperrors.Wrap(apperrors.ErrInvalidInput, "doctor is already inactive"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"error":"invalid_input","message":"doctor is already inactive: invalid input"}`,
		},
		{
			name:           "unauthorized is generic",
			err:            apperrors.Wrap(apperrors.ErrUnauthorized, "token expired"),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"unauthorized","message":"Authentication is required"}`,
		},
		{
			name:           "forbidden",
			err:            apperrors.ErrForbidden,
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"error":"forbidden","message":"You don't have permission to access this resource"}`,
		},
		{
			name:           "invalid state exposes message",
			err:            apperrors.Wrap(apperrors.ErrInvalidState, "doctor is already inactive"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid_state","message":"doctor is already inactive: invalid state"}`,
		},
		{
			name:           "too many requests",
			err:            apperrors.ErrTooManyRequests,
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   `{"error":"rate_limit_exceeded","message":"Too many requests, please retry later"}`,
		},
		{
			name:           "unknown error hides details",
			err:            fmt.Errorf("pq: connection refused: %w", errors.New("dial tcp")),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal_error","message":"An internal error occurred"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleErrorGin(c, tt.err, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestHandleErrorGin_NilError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleErrorGin(c, nil, nil)

	assert.Empty(t, w.Body.String())
}

func TestHandleBadRequestGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleBadRequestGin(c, errors.New("invalid character"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"bad_request","message":"invalid character"}`, w.Body.String())
}

func TestHandleErrorGin_LogLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"client error logs warn", apperrors.ErrNotFound, `"level":"WARN"`},
		{"server error logs error", errors.New("connection reset"), `"level":"ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/v1/doctors/1", nil)

			HandleErrorGin(c, tt.err, logger)

			assert.Contains(t, buf.String(), tt.level)
			assert.Contains(t, buf.String(), tt.err.Error())
		})
	}
}
