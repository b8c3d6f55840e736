// Package usecase implements scheduling and review of patient assessments.
package usecase

import (
	"context"

	"github.com/google/uuid"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
)

// AssessmentRepository defines persistence operations for assessments.
//
// Implementations seal assessments before writing and open them after reading. GetByID
// fails with a *cryptoDomain.CorruptRecordError when a field does not authenticate.
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *assessmentDomain.Assessment) error

	// Update modifies an existing assessment. Returns ErrAssessmentNotFound if it does not exist.
	Update(ctx context.Context, assessment *assessmentDomain.Assessment) error

	// GetByID retrieves an assessment by ID. Returns ErrAssessmentNotFound if not found.
	GetByID(ctx context.Context, assessmentID uuid.UUID) (*assessmentDomain.Assessment, error)

	// List returns the readable assessments of a page, newest first, and the open
	// failures of the rows it skipped.
	List(
		ctx context.Context,
		filter assessmentDomain.ListFilter,
	) ([]*assessmentDomain.Assessment, []*cryptoDomain.CorruptRecordError, error)
}

// AssessmentUseCase defines the assessment operations.
type AssessmentUseCase interface {
	// Create schedules a new assessment.
	Create(
		ctx context.Context,
		input *assessmentDomain.CreateAssessmentInput,
	) (*assessmentDomain.Assessment, error)

	// Update replaces the given sections of an assessment.
	Update(
		ctx context.Context,
		assessmentID uuid.UUID,
		input *assessmentDomain.UpdateAssessmentInput,
	) (*assessmentDomain.Assessment, error)

	// Get retrieves an assessment by ID.
	Get(ctx context.Context, assessmentID uuid.UUID) (*assessmentDomain.Assessment, error)

	// List returns one page of assessments. Corrupt rows are omitted and counted.
	List(ctx context.Context, filter assessmentDomain.ListFilter) (*assessmentDomain.ListOutput, error)
}
