package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	"github.com/allisson/careportal/internal/audit/http/dto"
	auditMocks "github.com/allisson/careportal/internal/audit/usecase/mocks"
)

func setupAuditLogHandler() (*AuditLogHandler, *auditMocks.MockAuditLogUseCase, *gin.Engine) {
	useCase := &auditMocks.MockAuditLogUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewAuditLogHandler(useCase, logger)

	router := gin.New()
	router.GET("/v1/audit-logs", handler.ListHandler)
	return handler, useCase, router
}

func TestAuditLogHandler_ListHandler(t *testing.T) {
	t.Run("Success with time range", func(t *testing.T) {
		_, useCase, router := setupAuditLogHandler()

		from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 14, 23, 59, 59, 0, time.UTC)
		logs := []*auditDomain.AuditLog{
			{ID: uuid.Must(uuid.NewV7()), Actor: "user-1", Action: "doctors:create", Outcome: auditDomain.OutcomeSuccess},
			{ID: uuid.Must(uuid.NewV7()), ActorCorrupt: true, Action: "doctors:update", Outcome: auditDomain.OutcomeFailure},
		}

		useCase.On("List", mock.Anything, auditDomain.ListFilter{
			Offset:        10,
			Limit:         5,
			CreatedAtFrom: &from,
			CreatedAtTo:   &to,
		}).Return(logs, nil).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/audit-logs?offset=10&limit=5&created_at_from=2026-02-01T00:00:00Z&created_at_to=2026-02-14T23:59:59Z",
			nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListAuditLogsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 2)
		assert.Equal(t, "user-1", response.Data[0].Actor)
		assert.True(t, response.Data[1].ActorCorrupt)
		useCase.AssertExpectations(t)
	})

	t.Run("Converts offsets to UTC", func(t *testing.T) {
		_, useCase, router := setupAuditLogHandler()

		from := time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC)
		useCase.On("List", mock.Anything, mock.MatchedBy(func(f auditDomain.ListFilter) bool {
			return f.CreatedAtFrom != nil && f.CreatedAtFrom.Equal(from) &&
				f.CreatedAtFrom.Location() == time.UTC && f.CreatedAtTo == nil
		})).Return([]*auditDomain.AuditLog{}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/v1/audit-logs?created_at_from=2026-02-01T00:00:00-03:00", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("Invalid timestamp", func(t *testing.T) {
		_, useCase, router := setupAuditLogHandler()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/audit-logs?created_at_to=yesterday", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "created_at_to")
		useCase.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("Invalid range", func(t *testing.T) {
		_, useCase, router := setupAuditLogHandler()
		useCase.On("List", mock.Anything, mock.Anything).Return(nil, auditDomain.ErrInvalidDateRange).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/v1/audit-logs?created_at_from=2026-02-14T00:00:00Z&created_at_to=2026-02-01T00:00:00Z", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Use case error", func(t *testing.T) {
		_, useCase, router := setupAuditLogHandler()
		useCase.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("database down")).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/audit-logs", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "database down")
	})
}
