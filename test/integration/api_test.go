// Package integration provides end-to-end tests of the care portal API against both
// PostgreSQL and MySQL.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/careportal/internal/app"
	assessmentDTO "github.com/allisson/careportal/internal/assessment/http/dto"
	auditDTO "github.com/allisson/careportal/internal/audit/http/dto"
	authDomain "github.com/allisson/careportal/internal/auth/domain"
	authDTO "github.com/allisson/careportal/internal/auth/http/dto"
	"github.com/allisson/careportal/internal/config"
	doctorDTO "github.com/allisson/careportal/internal/doctor/http/dto"
	"github.com/allisson/careportal/internal/testutil"
)

const (
	rootEmail    = "root@careportal.test"
	rootPassword = "RootPassw0rd"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	token     string
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	useAuth bool,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if useAuth {
		req.Header.Set("Authorization", "Bearer "+ctx.token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// waitForAudit blocks until every audit write started by earlier requests is done.
func (ctx *integrationTestContext) waitForAudit(t *testing.T) {
	t.Helper()

	recorder, err := ctx.container.AuditRecorder()
	require.NoError(t, err)
	recorder.Wait()
}

// generateFieldKey creates a random base64 field encryption key.
func generateFieldKey(t *testing.T) string {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

// setupIntegrationTest migrates a clean database, builds the router from the container,
// creates a SuperAdmin and logs it in.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	testutil.SkipIfNoDB(t, dbDriver)
	db := testutil.SetupDB(t, dbDriver)
	dsn := testutil.GetPostgresTestDSN()
	if dbDriver == "mysql" {
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		AppEnv:               config.EnvTest,
		DBDriver:             dbDriver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		ServerHost:           "localhost",
		ServerPort:           8080,
		LogLevel:             "error",
		FieldEncKey:          generateFieldKey(t),
		FieldEncAlgorithm:    "aes-gcm",
		JWTSecret:            "integration-test-secret",
		SessionExpiration:    time.Hour,
		SessionCookieName:    "authToken",
		AuditStore:           config.AuditStoreDatabase,
		AuditWriteTimeout:    5 * time.Second,
		ClientURL:            "http://localhost:3000",
		OutboxInterval:       time.Second,
		OutboxBatchSize:      10,
		OutboxMaxRetries:     3,
	}

	container := app.NewContainer(cfg)

	server, err := container.HTTPServer()
	require.NoError(t, err, "failed to build http server")

	userUseCase, err := container.UserUseCase()
	require.NoError(t, err, "failed to get user use case")

	_, err = userUseCase.CreateUser(context.Background(), &authDomain.CreateUserInput{
		Username: "root",
		Email:    rootEmail,
		Password: rootPassword,
		Role:     authDomain.RoleSuperAdmin,
	})
	require.NoError(t, err, "failed to create root user")

	ctx := &integrationTestContext{
		container: container,
		db:        db,
		server:    httptest.NewServer(server.GetHandler()),
		dbDriver:  dbDriver,
	}

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", authDTO.LoginRequest{
		Email:    rootEmail,
		Password: rootPassword,
	}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var login authDTO.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	require.NotEmpty(t, login.Token)
	ctx.token = login.Token

	return ctx
}

// teardownIntegrationTest releases the server, the container and the database.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	ctx.server.Close()
	if err := ctx.container.Shutdown(context.Background()); err != nil {
		t.Logf("Warning: failed to shutdown container: %v", err)
	}
	testutil.TeardownDB(t, ctx.db)
}

func forEachDriver(t *testing.T, fn func(t *testing.T, ctx *integrationTestContext)) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	for _, driver := range []string{"postgres", "mysql"} {
		t.Run(driver, func(t *testing.T) {
			ctx := setupIntegrationTest(t, driver)
			defer teardownIntegrationTest(t, ctx)

			fn(t, ctx)
		})
	}
}

// TestIntegration_Health_BasicChecks verifies the liveness and readiness probes.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ctx *integrationTestContext) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, false)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "healthy")

		resp, body = ctx.makeRequest(t, http.MethodGet, "/ready", nil, false)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"database":"ok"`)
	})
}

// TestIntegration_Auth_CompleteFlow exercises signup, the unverified login refusal,
// the session guard and the stored ciphertext.
func TestIntegration_Auth_CompleteFlow(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ctx *integrationTestContext) {
		t.Run("Me", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/auth/me", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var me authDTO.UserResponse
			require.NoError(t, json.Unmarshal(body, &me))
			assert.Equal(t, "root", me.Username)
			assert.Equal(t, rootEmail, me.Email)
		})

		t.Run("NoSession", func(t *testing.T) {
			resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/doctors", nil, false)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})

		t.Run("SignupQueuesVerificationMail", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/signup", authDTO.SignupRequest{
				Username: "nurse",
				Email:    "nurse@careportal.test",
				Password: "NursePassw0rd",
			}, false)
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

			assert.Equal(t, 1, testutil.CountRows(t, ctx.db, "outbox_events"))
		})

		t.Run("UnverifiedLoginRefused", func(t *testing.T) {
			resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", authDTO.LoginRequest{
				Email:    "nurse@careportal.test",
				Password: "NursePassw0rd",
			}, false)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})

		t.Run("EmailStoredEncrypted", func(t *testing.T) {
			var stored string
			err := ctx.db.QueryRow(`SELECT email FROM users WHERE username = 'root'`).Scan(&stored)
			require.NoError(t, err)
			assert.NotContains(t, stored, rootEmail)
		})
	})
}

// TestIntegration_Doctors_CompleteFlow exercises the doctor directory end to end.
func TestIntegration_Doctors_CompleteFlow(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ctx *integrationTestContext) {
		var doctor doctorDTO.DoctorResponse

		t.Run("Create", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/doctors", doctorDTO.CreateDoctorRequest{
				Name:      "Gregory House",
				Email:     "house@princeton.test",
				Phone:     "+1 555 0100",
				Specialty: "Diagnostics",
			}, true)
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
			require.NoError(t, json.Unmarshal(body, &doctor))

			assert.Regexp(t, regexp.MustCompile(`^DR-[A-Z0-9]{6}$`), doctor.DoctorCode)
			assert.Equal(t, "Active", doctor.Status)
		})

		t.Run("DuplicateEmail", func(t *testing.T) {
			resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/doctors", doctorDTO.CreateDoctorRequest{
				Name:      "Other",
				Email:     "HOUSE@princeton.test",
				Phone:     "+1 555 0101",
				Specialty: "Oncology",
			}, true)
			assert.Equal(t, http.StatusConflict, resp.StatusCode)
		})

		t.Run("Get", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/doctors/"+doctor.ID, nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			assert.Contains(t, string(body), "house@princeton.test")
		})

		t.Run("SearchByEmail", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/doctors?search=house@princeton.test", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var list doctorDTO.ListDoctorsResponse
			require.NoError(t, json.Unmarshal(body, &list))
			require.Len(t, list.Data, 1)
			assert.Equal(t, doctor.ID, list.Data[0].ID)
			assert.Equal(t, 1, list.Pagination.Total)
		})

		t.Run("Update", func(t *testing.T) {
			specialty := "Nephrology"
			resp, body := ctx.makeRequest(t, http.MethodPut, "/v1/doctors/"+doctor.ID,
				doctorDTO.UpdateDoctorRequest{Specialty: &specialty}, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			assert.Contains(t, string(body), "Nephrology")
		})

		t.Run("DeactivateAndReactivate", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/doctors/"+doctor.ID+"/deactivate", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			assert.Contains(t, string(body), `"status":"Inactive"`)

			resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/doctors/"+doctor.ID+"/deactivate", nil, true)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/doctors/"+doctor.ID+"/reactivate", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			assert.Contains(t, string(body), `"status":"Active"`)
		})

		t.Run("Stats", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/doctors/stats", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var stats doctorDTO.StatsResponse
			require.NoError(t, json.Unmarshal(body, &stats))
			assert.Equal(t, 1, stats.TotalDoctors)
		})

		t.Run("ExportCSV", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/doctors/export", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "0", resp.Header.Get("X-Corrupt-Records"))

			records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, doctor.DoctorCode, records[1][0])
		})

		t.Run("StoredEncrypted", func(t *testing.T) {
			var name, email string
			err := ctx.db.QueryRow(`SELECT name, email FROM doctors`).Scan(&name, &email)
			require.NoError(t, err)
			assert.NotContains(t, name, "House")
			assert.NotContains(t, email, "princeton")
		})
	})
}

// TestIntegration_Assessments_CompleteFlow exercises scheduled assessments end to end.
func TestIntegration_Assessments_CompleteFlow(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ctx *integrationTestContext) {
		age := 42
		scheduled := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
		var assessment assessmentDTO.AssessmentResponse

		t.Run("Create", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/assessments", assessmentDTO.CreateAssessmentRequest{
				Patient: assessmentDTO.PatientRequest{
					PatientID: "P-1001",
					Name:      "Jane Roe",
					Age:       &age,
					Gender:    "female",
					Contact:   "+1 555 0199",
				},
				Details: assessmentDTO.DetailsRequest{
					Type:  "cardiology",
					Notes: "History of arrhythmia",
				},
				Scheduling: assessmentDTO.SchedulingRequest{
					ScheduledDate: &scheduled,
					Doctor:        "Dr. House",
					Location:      "Room 3",
				},
				Consent: assessmentDTO.ConsentRequest{Given: true, Date: &scheduled, By: "Jane Roe"},
			}, true)
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
			require.NoError(t, json.Unmarshal(body, &assessment))
			assert.Equal(t, "Jane Roe", assessment.Patient.Name)
		})

		t.Run("UpdateReplacesSection", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodPut, "/v1/assessments/"+assessment.ID,
				assessmentDTO.UpdateAssessmentRequest{
					Details: &assessmentDTO.DetailsRequest{Type: "neurology"},
				}, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var updated assessmentDTO.AssessmentResponse
			require.NoError(t, json.Unmarshal(body, &updated))
			assert.Equal(t, "neurology", updated.Details.Type)
			assert.Empty(t, updated.Details.Notes)
			assert.Equal(t, "Jane Roe", updated.Patient.Name)
		})

		t.Run("List", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/assessments", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var list assessmentDTO.ListAssessmentsResponse
			require.NoError(t, json.Unmarshal(body, &list))
			require.Len(t, list.Data, 1)
			assert.Equal(t, 0, list.CorruptRecords)
		})

		t.Run("StoredEncrypted", func(t *testing.T) {
			var name string
			err := ctx.db.QueryRow(`SELECT patient_name FROM assessments`).Scan(&name)
			require.NoError(t, err)
			assert.NotContains(t, name, "Jane")
		})
	})
}

// TestIntegration_AuditTrail_SignedAndVerifiable checks that mutations leave signed
// audit records and that tampering is detected.
func TestIntegration_AuditTrail_SignedAndVerifiable(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ctx *integrationTestContext) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/doctors", doctorDTO.CreateDoctorRequest{
			Name:      "Lisa Cuddy",
			Email:     "cuddy@princeton.test",
			Phone:     "+1 555 0102",
			Specialty: "Endocrinology",
		}, true)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
		ctx.waitForAudit(t)

		resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/audit-logs", nil, true)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var logs auditDTO.ListAuditLogsResponse
		require.NoError(t, json.Unmarshal(body, &logs))

		var created *auditDTO.AuditLogResponse
		for i := range logs.Data {
			if logs.Data[i].Action == "doctors:create" {
				created = &logs.Data[i]
			}
		}
		require.NotNil(t, created, "expected a doctors:create audit record")
		assert.Equal(t, "SUCCESS", created.Outcome)
		assert.True(t, created.Signed)
		assert.NotEqual(t, "anonymous", created.Actor)
		assert.False(t, created.ActorCorrupt)

		auditLogUseCase, err := ctx.container.AuditLogUseCase()
		require.NoError(t, err)

		start := time.Now().Add(-time.Hour)
		end := time.Now().Add(time.Hour)

		report, err := auditLogUseCase.VerifyBatch(context.Background(), start, end)
		require.NoError(t, err)
		assert.Greater(t, report.ValidCount, int64(0))
		assert.Zero(t, report.InvalidCount)

		query := `UPDATE audit_logs SET action = 'doctors:delete' WHERE action = 'doctors:create'`
		_, err = ctx.db.Exec(query)
		require.NoError(t, err)

		report, err = auditLogUseCase.VerifyBatch(context.Background(), start, end)
		require.NoError(t, err)
		assert.Equal(t, int64(1), report.InvalidCount)
	})
}
