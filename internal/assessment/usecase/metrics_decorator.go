package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
	"github.com/allisson/careportal/internal/metrics"
)

// assessmentUseCaseWithMetrics decorates AssessmentUseCase with metrics instrumentation.
type assessmentUseCaseWithMetrics struct {
	next    AssessmentUseCase
	metrics metrics.BusinessMetrics
}

// NewAssessmentUseCaseWithMetrics wraps an AssessmentUseCase with metrics recording.
func NewAssessmentUseCaseWithMetrics(useCase AssessmentUseCase, m metrics.BusinessMetrics) AssessmentUseCase {
	return &assessmentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *assessmentUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "assessments", operation, status)
	a.metrics.RecordDuration(ctx, "assessments", operation, time.Since(start), status)
}

// Create records metrics for assessment creation.
func (a *assessmentUseCaseWithMetrics) Create(
	ctx context.Context,
	input *assessmentDomain.CreateAssessmentInput,
) (*assessmentDomain.Assessment, error) {
	start := time.Now()
	assessment, err := a.next.Create(ctx, input)
	a.record(ctx, "assessment_create", start, err)
	return assessment, err
}

// Update records metrics for assessment updates.
func (a *assessmentUseCaseWithMetrics) Update(
	ctx context.Context,
	assessmentID uuid.UUID,
	input *assessmentDomain.UpdateAssessmentInput,
) (*assessmentDomain.Assessment, error) {
	start := time.Now()
	assessment, err := a.next.Update(ctx, assessmentID, input)
	a.record(ctx, "assessment_update", start, err)
	return assessment, err
}

// Get records metrics for assessment retrieval.
func (a *assessmentUseCaseWithMetrics) Get(
	ctx context.Context,
	assessmentID uuid.UUID,
) (*assessmentDomain.Assessment, error) {
	start := time.Now()
	assessment, err := a.next.Get(ctx, assessmentID)
	a.record(ctx, "assessment_get", start, err)
	return assessment, err
}

// List records metrics for assessment listing and counts omitted corrupt rows.
func (a *assessmentUseCaseWithMetrics) List(
	ctx context.Context,
	filter assessmentDomain.ListFilter,
) (*assessmentDomain.ListOutput, error) {
	start := time.Now()
	output, err := a.next.List(ctx, filter)
	a.record(ctx, "assessment_list", start, err)
	if output != nil {
		for range output.CorruptRecords {
			a.metrics.RecordCorruptRecord(ctx, "Assessment")
		}
	}
	return output, err
}
