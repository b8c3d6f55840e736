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

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	authHTTP "github.com/allisson/careportal/internal/auth/http"
	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
	"github.com/allisson/careportal/internal/doctor/http/dto"
	doctorMocks "github.com/allisson/careportal/internal/doctor/usecase/mocks"
	"github.com/allisson/careportal/internal/httputil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

var testPrincipal = &authDomain.User{
	ID:         uuid.Must(uuid.NewV7()),
	Username:   "root",
	Role:       authDomain.RoleSuperAdmin,
	IsVerified: true,
}

// setupDoctorHandler wires every route behind a stub guard. The last recorded audit
// target is written to target.
func setupDoctorHandler(target *string) (*doctorMocks.MockDoctorUseCase, *gin.Engine) {
	useCase := &doctorMocks.MockDoctorUseCase{}
	handler := NewDoctorHandler(useCase, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(authHTTP.WithPrincipal(c.Request.Context(), testPrincipal))
		c.Next()
		*target = c.GetString("audit.target_id")
	})

	doctors := router.Group("/v1/doctors")
	doctors.POST("", handler.CreateHandler)
	doctors.GET("", handler.ListHandler)
	doctors.GET("/export", handler.ExportHandler)
	doctors.GET("/stats", handler.StatsHandler)
	doctors.GET("/:id", handler.GetHandler)
	doctors.PUT("/:id", handler.UpdateHandler)
	doctors.POST("/:id/deactivate", handler.DeactivateHandler)
	doctors.POST("/:id/reactivate", handler.ReactivateHandler)
	return useCase, router
}

func newDoctor() *doctorDomain.Doctor {
	return &doctorDomain.Doctor{
		ID:        uuid.Must(uuid.NewV7()),
		Code:      "DR-ABC234",
		Name:      "Dr. Ada Lovelace",
		Email:     "ada@example.com",
		Phone:     "+1 555 0100",
		Specialty: "Cardiology",
		Status:    doctorDomain.StatusActive,
		CreatedBy: testPrincipal.ID,
	}
}

func serve(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, reader))
	return w
}

func TestDoctorHandler_CreateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		doctor := newDoctor()

		useCase.On("Create", mock.Anything, &doctorDomain.CreateDoctorInput{
			Name:      "Dr. Ada Lovelace",
			Email:     "ada@example.com",
			Phone:     "+1 555 0100",
			Specialty: "Cardiology",
			CreatedBy: testPrincipal.ID,
		}).Return(doctor, nil).Once()

		w := serve(router, http.MethodPost, "/v1/doctors", dto.CreateDoctorRequest{
			Name:      "Dr. Ada Lovelace",
			Email:     "ada@example.com",
			Phone:     "+1 555 0100",
			Specialty: "Cardiology",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.DoctorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "DR-ABC234", response.DoctorCode)
		assert.Equal(t, "ada@example.com", response.Email)
		assert.Equal(t, doctor.ID.String(), target)
		useCase.AssertExpectations(t)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		useCase.On("Create", mock.Anything, mock.Anything).
			Return(nil, doctorDomain.ErrDoctorEmailAlreadyExists).Once()

		w := serve(router, http.MethodPost, "/v1/doctors", dto.CreateDoctorRequest{Name: "x"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Empty(t, target)
	})

	t.Run("Malformed body", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/doctors", bytes.NewBufferString("{")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		useCase.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDoctorHandler_ListHandler(t *testing.T) {
	t.Run("Defaults to active doctors", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		active := doctorDomain.StatusActive

		useCase.On("List", mock.Anything, doctorDomain.ListFilter{
			Status: &active,
			Search: "cardiology",
			Offset: 0,
			Limit:  httputil.DefaultPageLimit,
		}).Return(&doctorDomain.ListOutput{
			Doctors:        []*doctorDomain.Doctor{newDoctor()},
			Total:          2,
			CorruptRecords: 1,
		}, nil).Once()

		w := serve(router, http.MethodGet, "/v1/doctors?search=cardiology", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.ListDoctorsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 1)
		assert.Equal(t, 2, response.Pagination.Total)
		assert.Equal(t, 1, response.CorruptRecords)
		useCase.AssertExpectations(t)
	})

	t.Run("All statuses", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)

		useCase.On("List", mock.Anything, mock.MatchedBy(func(f doctorDomain.ListFilter) bool {
			return f.Status == nil && f.Offset == 10 && f.Limit == 5
		})).Return(&doctorDomain.ListOutput{}, nil).Once()

		w := serve(router, http.MethodGet, "/v1/doctors?status=All&offset=10&limit=5", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})

	t.Run("Invalid status", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)

		w := serve(router, http.MethodGet, "/v1/doctors?status=Retired", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		useCase.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestDoctorHandler_GetHandler(t *testing.T) {
	t.Run("Invalid id", func(t *testing.T) {
		var target string
		_, router := setupDoctorHandler(&target)

		w := serve(router, http.MethodGet, "/v1/doctors/not-a-uuid", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Not found", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		doctorID := uuid.Must(uuid.NewV7())
		useCase.On("Get", mock.Anything, doctorID).Return(nil, doctorDomain.ErrDoctorNotFound).Once()

		w := serve(router, http.MethodGet, "/v1/doctors/"+doctorID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Corrupt record is an internal error", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		doctorID := uuid.Must(uuid.NewV7())
		useCase.On("Get", mock.Anything, doctorID).Return(nil, &cryptoDomain.CorruptRecordError{
			RecordType: "Doctor",
			RecordID:   doctorID.String(),
			Fields:     map[string]error{"Email": cryptoDomain.ErrAuthenticationFailure},
		}).Once()

		w := serve(router, http.MethodGet, "/v1/doctors/"+doctorID.String(), nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "Email")
	})
}

func TestDoctorHandler_UpdateHandler(t *testing.T) {
	var target string
	useCase, router := setupDoctorHandler(&target)
	doctor := newDoctor()
	specialty := "Neurology"

	useCase.On("Update", mock.Anything, doctor.ID, &doctorDomain.UpdateDoctorInput{Specialty: &specialty}).
		Return(doctor, nil).Once()

	w := serve(router, http.MethodPut, "/v1/doctors/"+doctor.ID.String(), map[string]string{
		"specialty": "Neurology",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, doctor.ID.String(), target)
	useCase.AssertExpectations(t)
}

func TestDoctorHandler_Lifecycle(t *testing.T) {
	t.Run("Deactivate", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		doctor := newDoctor()
		doctor.Status = doctorDomain.StatusInactive

		useCase.On("Deactivate", mock.Anything, doctor.ID, testPrincipal.ID).Return(doctor, nil).Once()

		w := serve(router, http.MethodPost, "/v1/doctors/"+doctor.ID.String()+"/deactivate", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"Inactive"`)
		assert.Equal(t, doctor.ID.String(), target)
	})

	t.Run("Deactivate inactive doctor", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		doctorID := uuid.Must(uuid.NewV7())

		useCase.On("Deactivate", mock.Anything, doctorID, testPrincipal.ID).
			Return(nil, doctorDomain.ErrDoctorAlreadyInactive).Once()

		w := serve(router, http.MethodPost, "/v1/doctors/"+doctorID.String()+"/deactivate", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "already deactivated")
		assert.Equal(t, doctorID.String(), target, "failed attempts still name the target")
	})

	t.Run("Reactivate active doctor", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		doctorID := uuid.Must(uuid.NewV7())

		useCase.On("Reactivate", mock.Anything, doctorID).Return(nil, doctorDomain.ErrDoctorAlreadyActive).Once()

		w := serve(router, http.MethodPost, "/v1/doctors/"+doctorID.String()+"/reactivate", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDoctorHandler_ExportHandler(t *testing.T) {
	output := &doctorDomain.ExportOutput{Doctors: []*doctorDomain.Doctor{newDoctor()}, CorruptRecords: 2}

	t.Run("CSV by default", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		useCase.On("Export", mock.Anything).Return(output, nil).Once()

		w := serve(router, http.MethodGet, "/v1/doctors/export", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="doctors_export.csv"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "2", w.Header().Get("X-Corrupt-Records"))
		assert.Contains(t, w.Body.String(), "DR-ABC234,Dr. Ada Lovelace,ada@example.com")
	})

	t.Run("JSON", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		useCase.On("Export", mock.Anything).Return(output, nil).Once()

		w := serve(router, http.MethodGet, "/v1/doctors/export?format=json", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var exported []dto.ExportedDoctor
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exported))
		require.Len(t, exported, 1)
		assert.Equal(t, "Cardiology", exported[0].Specialty)
	})

	t.Run("Unsupported format", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)

		w := serve(router, http.MethodGet, "/v1/doctors/export?format=xml", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		useCase.AssertNotCalled(t, "Export", mock.Anything)
	})
}

func TestDoctorHandler_StatsHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		useCase.On("Stats", mock.Anything).Return(&doctorDomain.Stats{
			TotalDoctors: 3,
			Specialties:  []doctorDomain.SpecialtyCount{{Specialty: "Cardiology", Count: 3}},
		}, nil).Once()

		w := serve(router, http.MethodGet, "/v1/doctors/stats", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t,
			`{"total_doctors":3,"specialties":[{"specialty":"Cardiology","count":3}],"corrupt_records":0}`,
			w.Body.String())
	})

	t.Run("Error", func(t *testing.T) {
		var target string
		useCase, router := setupDoctorHandler(&target)
		useCase.On("Stats", mock.Anything).Return(nil, errors.New("database down")).Once()

		w := serve(router, http.MethodGet, "/v1/doctors/stats", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
