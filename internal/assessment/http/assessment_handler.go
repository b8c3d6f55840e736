// Package http provides the assessment handlers.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
	"github.com/allisson/careportal/internal/assessment/http/dto"
	assessmentUseCase "github.com/allisson/careportal/internal/assessment/usecase"
	auditHTTP "github.com/allisson/careportal/internal/audit/http"
	authHTTP "github.com/allisson/careportal/internal/auth/http"
	apperrors "github.com/allisson/careportal/internal/errors"
	"github.com/allisson/careportal/internal/httputil"
	customValidation "github.com/allisson/careportal/internal/validation"
)

// AssessmentHandler handles HTTP requests for patient assessments.
type AssessmentHandler struct {
	assessmentUseCase assessmentUseCase.AssessmentUseCase
	logger            *slog.Logger
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(
	assessmentUseCase assessmentUseCase.AssessmentUseCase,
	logger *slog.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentUseCase: assessmentUseCase,
		logger:            logger,
	}
}

// CreateHandler schedules an assessment.
// POST /v1/assessments - Requires assessments:create. Returns 201 Created.
func (h *AssessmentHandler) CreateHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	assessment, err := h.assessmentUseCase.Create(c.Request.Context(), req.ToDomain(principal.ID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.SetTargetID(c, assessment.ID.String())
	c.JSON(http.StatusCreated, dto.MapAssessmentToResponse(assessment))
}

// UpdateHandler replaces the sections present in the body.
// PUT /v1/assessments/:id - Requires assessments:update.
func (h *AssessmentHandler) UpdateHandler(c *gin.Context) {
	assessmentID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	assessment, err := h.assessmentUseCase.Update(c.Request.Context(), assessmentID, req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAssessmentToResponse(assessment))
}

// GetHandler retrieves an assessment by ID.
// GET /v1/assessments/:id - Requires assessments:read.
func (h *AssessmentHandler) GetHandler(c *gin.Context) {
	assessmentID, ok := h.parseID(c)
	if !ok {
		return
	}

	assessment, err := h.assessmentUseCase.Get(c.Request.Context(), assessmentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAssessmentToResponse(assessment))
}

// ListHandler returns one page of assessments, newest first.
// GET /v1/assessments?offset=0&limit=50 - Requires assessments:read.
func (h *AssessmentHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	output, err := h.assessmentUseCase.List(c.Request.Context(), assessmentDomain.ListFilter{
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapListOutputToResponse(output, offset, limit))
}

func (h *AssessmentHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	assessmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid assessment ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, false
	}

	auditHTTP.SetTargetID(c, assessmentID.String())
	return assessmentID, true
}
