package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
	"github.com/allisson/careportal/internal/assessment/http/dto"
	assessmentMocks "github.com/allisson/careportal/internal/assessment/usecase/mocks"
	authDomain "github.com/allisson/careportal/internal/auth/domain"
	authHTTP "github.com/allisson/careportal/internal/auth/http"
	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

var testPrincipal = &authDomain.User{
	ID:         uuid.Must(uuid.NewV7()),
	Username:   "root",
	Role:       authDomain.RoleAdmin,
	IsVerified: true,
}

func setupAssessmentHandler(target *string) (*assessmentMocks.MockAssessmentUseCase, *gin.Engine) {
	useCase := &assessmentMocks.MockAssessmentUseCase{}
	handler := NewAssessmentHandler(useCase, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(authHTTP.WithPrincipal(c.Request.Context(), testPrincipal))
		c.Next()
		*target = c.GetString("audit.target_id")
	})

	assessments := router.Group("/v1/assessments")
	assessments.POST("", handler.CreateHandler)
	assessments.GET("", handler.ListHandler)
	assessments.GET("/:id", handler.GetHandler)
	assessments.PUT("/:id", handler.UpdateHandler)
	return useCase, router
}

func newAssessment() *assessmentDomain.Assessment {
	age := 42
	return &assessmentDomain.Assessment{
		ID: uuid.Must(uuid.NewV7()),
		Patient: assessmentDomain.PatientInfo{
			PatientID: "P-1001",
			Name:      "Grace Hopper",
			Age:       &age,
			Contact:   "+1 555 0199",
		},
		Details:   assessmentDomain.Details{Type: "Cardiac", Notes: "History of arrhythmia"},
		CreatedBy: testPrincipal.ID,
	}
}

func serve(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewReader(payload)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, reader))
	return w
}

func TestAssessmentHandler_CreateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var target string
		useCase, router := setupAssessmentHandler(&target)
		assessment := newAssessment()

		useCase.On("Create", mock.Anything, mock.MatchedBy(func(input *assessmentDomain.CreateAssessmentInput) bool {
			return input.CreatedBy == testPrincipal.ID &&
				input.Patient.Name == "Grace Hopper" &&
				input.Details.Type == "Cardiac"
		})).Return(assessment, nil).Once()

		age := 42
		w := serve(router, http.MethodPost, "/v1/assessments", dto.CreateAssessmentRequest{
			Patient: dto.PatientRequest{PatientID: "P-1001", Name: "Grace Hopper", Age: &age},
			Details: dto.DetailsRequest{Type: "Cardiac"},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.AssessmentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, assessment.ID.String(), response.ID)
		assert.Equal(t, "Grace Hopper", response.Patient.Name)
		assert.Equal(t, "History of arrhythmia", response.Details.Notes)
		assert.Equal(t, assessment.ID.String(), target)
		useCase.AssertExpectations(t)
	})

	t.Run("Validation error", func(t *testing.T) {
		var target string
		useCase, router := setupAssessmentHandler(&target)

		w := serve(router, http.MethodPost, "/v1/assessments", dto.CreateAssessmentRequest{
			Details: dto.DetailsRequest{Type: "Cardiac"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "validation_error")
		assert.Empty(t, target)
		useCase.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		var target string
		_, router := setupAssessmentHandler(&target)

		w := serve(router, http.MethodPost, "/v1/assessments", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAssessmentHandler_UpdateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var target string
		useCase, router := setupAssessmentHandler(&target)
		assessment := newAssessment()
		assessment.Consent = assessmentDomain.Consent{Given: true, By: "Alan Hopper"}

		useCase.On("Update", mock.Anything, assessment.ID, mock.MatchedBy(func(input *assessmentDomain.UpdateAssessmentInput) bool {
			return input.Patient == nil && input.Consent != nil && input.Consent.By == "Alan Hopper"
		})).Return(assessment, nil).Once()

		w := serve(router, http.MethodPut, "/v1/assessments/"+assessment.ID.String(), dto.UpdateAssessmentRequest{
			Consent: &dto.ConsentRequest{Given: true, By: "Alan Hopper"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, assessment.ID.String(), target)
		useCase.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		var target string
		useCase, router := setupAssessmentHandler(&target)
		assessmentID := uuid.Must(uuid.NewV7())

		useCase.On("Update", mock.Anything, assessmentID, mock.Anything).
			Return(nil, assessmentDomain.ErrAssessmentNotFound).Once()

		w := serve(router, http.MethodPut, "/v1/assessments/"+assessmentID.String(), dto.UpdateAssessmentRequest{})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, assessmentID.String(), target, "failed attempts name their target")
	})

	t.Run("Invalid ID", func(t *testing.T) {
		var target string
		_, router := setupAssessmentHandler(&target)

		w := serve(router, http.MethodPut, "/v1/assessments/not-a-uuid", dto.UpdateAssessmentRequest{})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Empty(t, target)
	})
}

func TestAssessmentHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var target string
		useCase, router := setupAssessmentHandler(&target)
		assessment := newAssessment()

		useCase.On("Get", mock.Anything, assessment.ID).Return(assessment, nil).Once()

		w := serve(router, http.MethodGet, "/v1/assessments/"+assessment.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.AssessmentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "+1 555 0199", response.Patient.Contact)
	})

	t.Run("Corrupt record", func(t *testing.T) {
		var target string
		useCase, router := setupAssessmentHandler(&target)
		assessmentID := uuid.Must(uuid.NewV7())

		corrupt := &cryptoDomain.CorruptRecordError{
			RecordType: "Assessment",
			RecordID:   assessmentID.String(),
			Fields:     map[string]error{"Patient.Name": cryptoDomain.ErrAuthenticationFailure},
		}
		useCase.On("Get", mock.Anything, assessmentID).Return(nil, corrupt).Once()

		w := serve(router, http.MethodGet, "/v1/assessments/"+assessmentID.String(), nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "Patient.Name")
	})

	t.Run("Unexpected error", func(t *testing.T) {
		var target string
		useCase, router := setupAssessmentHandler(&target)
		assessmentID := uuid.Must(uuid.NewV7())

		useCase.On("Get", mock.Anything, assessmentID).Return(nil, errors.New("boom")).Once()

		w := serve(router, http.MethodGet, "/v1/assessments/"+assessmentID.String(), nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAssessmentHandler_ListHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var target string
		useCase, router := setupAssessmentHandler(&target)

		useCase.On("List", mock.Anything, assessmentDomain.ListFilter{Offset: 5, Limit: 10}).
			Return(&assessmentDomain.ListOutput{
				Assessments:    []*assessmentDomain.Assessment{newAssessment()},
				CorruptRecords: 2,
			}, nil).Once()

		w := serve(router, http.MethodGet, "/v1/assessments?offset=5&limit=10", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.ListAssessmentsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 1)
		assert.Equal(t, 2, response.CorruptRecords)
		assert.Equal(t, dto.Pagination{Offset: 5, Limit: 10}, response.Pagination)
	})

	t.Run("Invalid limit", func(t *testing.T) {
		var target string
		_, router := setupAssessmentHandler(&target)

		w := serve(router, http.MethodGet, "/v1/assessments?limit=500", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
