// Package http provides the doctor directory handlers. Mutating routes are wrapped by
// the audit recorder; handlers report the affected doctor through the audit side
// channel.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditHTTP "github.com/allisson/careportal/internal/audit/http"
	authHTTP "github.com/allisson/careportal/internal/auth/http"
	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
	"github.com/allisson/careportal/internal/doctor/http/dto"
	doctorUseCase "github.com/allisson/careportal/internal/doctor/usecase"
	apperrors "github.com/allisson/careportal/internal/errors"
	"github.com/allisson/careportal/internal/httputil"
)

// DoctorHandler handles HTTP requests for the doctor directory.
type DoctorHandler struct {
	doctorUseCase doctorUseCase.DoctorUseCase
	logger        *slog.Logger
}

// NewDoctorHandler creates a new doctor handler.
func NewDoctorHandler(doctorUseCase doctorUseCase.DoctorUseCase, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{
		doctorUseCase: doctorUseCase,
		logger:        logger,
	}
}

// CreateHandler adds a doctor to the directory.
// POST /v1/doctors - Requires doctors:create. Returns 201 Created.
func (h *DoctorHandler) CreateHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	doctor, err := h.doctorUseCase.Create(c.Request.Context(), req.ToDomain(principal.ID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.SetTargetID(c, doctor.ID.String())
	c.JSON(http.StatusCreated, dto.MapDoctorToResponse(doctor))
}

// ListHandler returns one page of doctors.
// GET /v1/doctors?status=Active&search=cardiology&offset=0&limit=50 - Requires doctors:read.
// status defaults to Active; "All" disables the filter.
func (h *DoctorHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	status, err := doctorDomain.ParseStatusFilter(c.Query("status"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	output, err := h.doctorUseCase.List(c.Request.Context(), doctorDomain.ListFilter{
		Status: status,
		Search: c.Query("search"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapListOutputToResponse(output, offset, limit))
}

// GetHandler retrieves a doctor by ID.
// GET /v1/doctors/:id - Requires doctors:read.
func (h *DoctorHandler) GetHandler(c *gin.Context) {
	doctorID, ok := h.parseID(c)
	if !ok {
		return
	}

	doctor, err := h.doctorUseCase.Get(c.Request.Context(), doctorID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDoctorToResponse(doctor))
}

// UpdateHandler applies a partial update.
// PUT /v1/doctors/:id - Requires doctors:update.
func (h *DoctorHandler) UpdateHandler(c *gin.Context) {
	doctorID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	doctor, err := h.doctorUseCase.Update(c.Request.Context(), doctorID, req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDoctorToResponse(doctor))
}

// DeactivateHandler marks a doctor inactive. Doctors are never deleted.
// POST /v1/doctors/:id/deactivate - Requires doctors:delete. Returns 400 if already inactive.
func (h *DoctorHandler) DeactivateHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	doctorID, ok := h.parseID(c)
	if !ok {
		return
	}

	doctor, err := h.doctorUseCase.Deactivate(c.Request.Context(), doctorID, principal.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDoctorToResponse(doctor))
}

// ReactivateHandler marks an inactive doctor active again.
// POST /v1/doctors/:id/reactivate - Requires doctors:update. Returns 400 if already active.
func (h *DoctorHandler) ReactivateHandler(c *gin.Context) {
	doctorID, ok := h.parseID(c)
	if !ok {
		return
	}

	doctor, err := h.doctorUseCase.Reactivate(c.Request.Context(), doctorID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDoctorToResponse(doctor))
}

// ExportHandler downloads the whole directory.
// GET /v1/doctors/export?format=csv|json - Requires doctors:read. Omitted corrupt rows
// are reported in the X-Corrupt-Records header.
func (h *DoctorHandler) ExportHandler(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "json" {
		httputil.HandleBadRequestGin(c, doctorDomain.ErrUnsupportedExportFormat, h.logger)
		return
	}

	output, err := h.doctorUseCase.Export(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("X-Corrupt-Records", strconv.Itoa(output.CorruptRecords))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="doctors_export.%s"`, format))

	if format == "json" {
		c.JSON(http.StatusOK, dto.MapDoctorsToExport(output.Doctors))
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := dto.WriteDoctorsCSV(c.Writer, output.Doctors); err != nil {
		h.logger.Error("failed to write doctors export", slog.Any("error", err))
	}
}

// StatsHandler returns the directory size and per-specialty counts.
// GET /v1/doctors/stats - Requires doctors:read.
func (h *DoctorHandler) StatsHandler(c *gin.Context) {
	stats, err := h.doctorUseCase.Stats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatsToResponse(stats))
}

// parseID reads the :id parameter and reports it as the audit target. On failure the
// 422 response has been written.
func (h *DoctorHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid doctor ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, false
	}

	auditHTTP.SetTargetID(c, doctorID.String())
	return doctorID, true
}
