package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
	apperrors "github.com/allisson/careportal/internal/errors"
)

type assessmentUseCase struct {
	assessmentRepo AssessmentRepository
	logger         *slog.Logger
	now            func() time.Time
}

// Create schedules a new assessment. Consent given without a date is dated now.
func (a *assessmentUseCase) Create(
	ctx context.Context,
	input *assessmentDomain.CreateAssessmentInput,
) (*assessmentDomain.Assessment, error) {
	assessment := &assessmentDomain.Assessment{
		ID:         uuid.Must(uuid.NewV7()),
		Patient:    input.Patient,
		Details:    input.Details,
		Scheduling: input.Scheduling,
		Consent:    a.datedConsent(input.Consent),
		CreatedBy:  input.CreatedBy,
	}

	if err := a.assessmentRepo.Create(ctx, assessment); err != nil {
		return nil, apperrors.Wrap(err, "failed to create assessment")
	}
	return assessment, nil
}

// Update replaces the non-nil sections of the stored assessment.
func (a *assessmentUseCase) Update(
	ctx context.Context,
	assessmentID uuid.UUID,
	input *assessmentDomain.UpdateAssessmentInput,
) (*assessmentDomain.Assessment, error) {
	assessment, err := a.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	if input.Patient != nil {
		assessment.Patient = *input.Patient
	}
	if input.Details != nil {
		assessment.Details = *input.Details
	}
	if input.Scheduling != nil {
		assessment.Scheduling = *input.Scheduling
	}
	if input.Consent != nil {
		assessment.Consent = a.datedConsent(*input.Consent)
	}

	if err := a.assessmentRepo.Update(ctx, assessment); err != nil {
		return nil, err
	}
	return assessment, nil
}

// Get retrieves an assessment by ID.
func (a *assessmentUseCase) Get(
	ctx context.Context,
	assessmentID uuid.UUID,
) (*assessmentDomain.Assessment, error) {
	return a.assessmentRepo.GetByID(ctx, assessmentID)
}

// List returns one page of assessments and logs every omitted corrupt row.
func (a *assessmentUseCase) List(
	ctx context.Context,
	filter assessmentDomain.ListFilter,
) (*assessmentDomain.ListOutput, error) {
	assessments, corrupt, err := a.assessmentRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list assessments")
	}

	for _, record := range corrupt {
		a.logger.Warn("assessment record omitted: encrypted field failed to open",
			slog.String("assessment_id", record.RecordID),
			slog.Any("fields", record.FieldNames()),
		)
	}

	return &assessmentDomain.ListOutput{Assessments: assessments, CorruptRecords: len(corrupt)}, nil
}

func (a *assessmentUseCase) datedConsent(consent assessmentDomain.Consent) assessmentDomain.Consent {
	if consent.Given && consent.Date == nil {
		now := a.now().UTC()
		consent.Date = &now
	}
	return consent
}

// NewAssessmentUseCase creates a new AssessmentUseCase.
func NewAssessmentUseCase(assessmentRepo AssessmentRepository, logger *slog.Logger) AssessmentUseCase {
	return &assessmentUseCase{
		assessmentRepo: assessmentRepo,
		logger:         logger,
		now:            time.Now,
	}
}
