// Package usecase implements the doctor directory: creation with email uniqueness,
// blind-index search, lifecycle transitions, export and statistics.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
)

// DoctorRepository defines persistence operations for doctors.
//
// Implementations seal doctors before writing and open them after reading. GetByID fails
// with a *cryptoDomain.CorruptRecordError when a field does not authenticate; List omits
// such rows from its result and reports them separately.
type DoctorRepository interface {
	// Create stores a new doctor. Returns ErrDoctorEmailAlreadyExists or
	// ErrDoctorCodeAlreadyExists on unique violations.
	Create(ctx context.Context, doctor *doctorDomain.Doctor) error

	// Update modifies an existing doctor. Returns ErrDoctorNotFound if it does not exist.
	Update(ctx context.Context, doctor *doctorDomain.Doctor) error

	// GetByID retrieves a doctor by ID. Returns ErrDoctorNotFound if not found.
	GetByID(ctx context.Context, doctorID uuid.UUID) (*doctorDomain.Doctor, error)

	// EmailIndexTaken reports whether a doctor other than excludeID holds emailIndex.
	EmailIndexTaken(ctx context.Context, emailIndex string, excludeID uuid.UUID) (bool, error)

	// List returns the readable doctors matching filter, newest first, and the open
	// failures of the rows it skipped.
	List(
		ctx context.Context,
		filter doctorDomain.SearchFilter,
	) ([]*doctorDomain.Doctor, []*cryptoDomain.CorruptRecordError, error)

	// Count returns the number of rows matching filter, ignoring Offset and Limit.
	Count(ctx context.Context, filter doctorDomain.SearchFilter) (int, error)
}

// DoctorUseCase defines the doctor directory operations.
type DoctorUseCase interface {
	// Create validates the input and stores a new active doctor with a generated code.
	Create(ctx context.Context, input *doctorDomain.CreateDoctorInput) (*doctorDomain.Doctor, error)

	// List returns one page of doctors. Corrupt rows are omitted and counted.
	List(ctx context.Context, filter doctorDomain.ListFilter) (*doctorDomain.ListOutput, error)

	// Get retrieves a doctor by ID.
	Get(ctx context.Context, doctorID uuid.UUID) (*doctorDomain.Doctor, error)

	// Update applies a partial update, re-checking email uniqueness when it changes.
	Update(
		ctx context.Context,
		doctorID uuid.UUID,
		input *doctorDomain.UpdateDoctorInput,
	) (*doctorDomain.Doctor, error)

	// Deactivate marks an active doctor inactive. Returns ErrDoctorAlreadyInactive otherwise.
	Deactivate(ctx context.Context, doctorID, by uuid.UUID) (*doctorDomain.Doctor, error)

	// Reactivate marks an inactive doctor active. Returns ErrDoctorAlreadyActive otherwise.
	Reactivate(ctx context.Context, doctorID uuid.UUID) (*doctorDomain.Doctor, error)

	// Export returns every readable doctor, newest first.
	Export(ctx context.Context) (*doctorDomain.ExportOutput, error)

	// Stats counts doctors in total and per specialty.
	Stats(ctx context.Context) (*doctorDomain.Stats, error)
}
