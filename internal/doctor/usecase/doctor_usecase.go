package usecase

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
	apperrors "github.com/allisson/careportal/internal/errors"
	appValidation "github.com/allisson/careportal/internal/validation"
)

// maxCodeAttempts bounds retries when a generated doctor code collides.
const maxCodeAttempts = 3

type doctorUseCase struct {
	doctorRepo DoctorRepository
	accessor   *cryptoService.FieldAccessor
	logger     *slog.Logger
	now        func() time.Time
	newCode    func() string
}

func validateDoctor(name, email, phone, specialty *string) error {
	err := validation.Errors{
		"name": validation.Validate(name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255),
		),
		"email": validation.Validate(email,
			validation.Required.Error("email is required"),
			appValidation.Email,
			validation.Length(5, 255),
		),
		"phone": validation.Validate(phone,
			validation.Required.Error("phone is required"),
			appValidation.Phone,
		),
		"specialty": validation.Validate(specialty,
			validation.Required.Error("specialty is required"),
			appValidation.NotBlank,
			validation.Length(1, 100),
		),
	}.Filter()
	return appValidation.WrapValidationError(err)
}

// Create stores a new active doctor. The email blind index is checked first so the
// common duplicate case does not depend on the driver's constraint error.
func (d *doctorUseCase) Create(
	ctx context.Context,
	input *doctorDomain.CreateDoctorInput,
) (*doctorDomain.Doctor, error) {
	doctor := &doctorDomain.Doctor{
		Name:      strings.TrimSpace(input.Name),
		Email:     cryptoService.NormalizeIndexValue(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Specialty: strings.TrimSpace(input.Specialty),
		Status:    doctorDomain.StatusActive,
		CreatedBy: input.CreatedBy,
	}
	if err := validateDoctor(&doctor.Name, &doctor.Email, &doctor.Phone, &doctor.Specialty); err != nil {
		return nil, err
	}

	taken, err := d.doctorRepo.EmailIndexTaken(ctx, d.accessor.Index(doctorDomain.EmailScope, doctor.Email), uuid.Nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to check doctor email")
	}
	if taken {
		return nil, doctorDomain.ErrDoctorEmailAlreadyExists
	}

	for attempt := 1; ; attempt++ {
		doctor.ID = uuid.Must(uuid.NewV7())
		doctor.Code = d.newCode()

		err = d.doctorRepo.Create(ctx, doctor)
		if err == nil {
			return doctor, nil
		}
		if !apperrors.Is(err, doctorDomain.ErrDoctorCodeAlreadyExists) || attempt == maxCodeAttempts {
			return nil, err
		}
	}
}

// List resolves the search term into a code and blind indexes and returns one page.
func (d *doctorUseCase) List(
	ctx context.Context,
	filter doctorDomain.ListFilter,
) (*doctorDomain.ListOutput, error) {
	search := d.searchFilter(filter)

	doctors, corrupt, err := d.doctorRepo.List(ctx, search)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list doctors")
	}
	d.logCorrupt(corrupt)

	total, err := d.doctorRepo.Count(ctx, search)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count doctors")
	}

	return &doctorDomain.ListOutput{
		Doctors:        doctors,
		Total:          total,
		CorruptRecords: len(corrupt),
	}, nil
}

func (d *doctorUseCase) searchFilter(filter doctorDomain.ListFilter) doctorDomain.SearchFilter {
	search := doctorDomain.SearchFilter{
		Status: filter.Status,
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}

	term := strings.TrimSpace(filter.Search)
	if term == "" {
		return search
	}

	if code, ok := doctorDomain.ParseCode(term); ok {
		search.Code = code
	}
	search.NameIndex = d.accessor.Index(doctorDomain.NameScope, term)
	search.EmailIndex = d.accessor.Index(doctorDomain.EmailScope, term)
	search.PhoneIndex = d.accessor.Index(doctorDomain.PhoneScope, term)
	search.SpecialtyIndex = d.accessor.Index(doctorDomain.SpecialtyScope, term)
	return search
}

// Get retrieves a doctor by ID.
func (d *doctorUseCase) Get(ctx context.Context, doctorID uuid.UUID) (*doctorDomain.Doctor, error) {
	return d.doctorRepo.GetByID(ctx, doctorID)
}

// Update applies the non-nil fields of input.
func (d *doctorUseCase) Update(
	ctx context.Context,
	doctorID uuid.UUID,
	input *doctorDomain.UpdateDoctorInput,
) (*doctorDomain.Doctor, error) {
	doctor, err := d.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	previousEmail := doctor.Email
	if input.Name != nil {
		doctor.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		doctor.Email = cryptoService.NormalizeIndexValue(*input.Email)
	}
	if input.Phone != nil {
		doctor.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Specialty != nil {
		doctor.Specialty = strings.TrimSpace(*input.Specialty)
	}

	if err := validateDoctor(&doctor.Name, &doctor.Email, &doctor.Phone, &doctor.Specialty); err != nil {
		return nil, err
	}

	if cryptoService.NormalizeIndexValue(previousEmail) != doctor.Email {
		emailIndex := d.accessor.Index(doctorDomain.EmailScope, doctor.Email)
		taken, err := d.doctorRepo.EmailIndexTaken(ctx, emailIndex, doctor.ID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to check doctor email")
		}
		if taken {
			return nil, doctorDomain.ErrDoctorEmailAlreadyExists
		}
	}

	if err := d.doctorRepo.Update(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

// Deactivate marks the doctor inactive on behalf of by.
func (d *doctorUseCase) Deactivate(
	ctx context.Context,
	doctorID, by uuid.UUID,
) (*doctorDomain.Doctor, error) {
	doctor, err := d.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if err := doctor.Deactivate(by, d.now().UTC()); err != nil {
		return nil, err
	}

	if err := d.doctorRepo.Update(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

// Reactivate marks the doctor active again.
func (d *doctorUseCase) Reactivate(ctx context.Context, doctorID uuid.UUID) (*doctorDomain.Doctor, error) {
	doctor, err := d.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if err := doctor.Reactivate(); err != nil {
		return nil, err
	}

	if err := d.doctorRepo.Update(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

// Export loads the whole directory regardless of status.
func (d *doctorUseCase) Export(ctx context.Context) (*doctorDomain.ExportOutput, error) {
	doctors, corrupt, err := d.doctorRepo.List(ctx, doctorDomain.SearchFilter{})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to export doctors")
	}
	d.logCorrupt(corrupt)

	return &doctorDomain.ExportOutput{Doctors: doctors, CorruptRecords: len(corrupt)}, nil
}

// Stats groups doctors by specialty after decryption. Specialties that differ only in
// case or surrounding spaces are counted together under the first spelling seen.
// Corrupt rows count towards the total only.
func (d *doctorUseCase) Stats(ctx context.Context) (*doctorDomain.Stats, error) {
	doctors, corrupt, err := d.doctorRepo.List(ctx, doctorDomain.SearchFilter{})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load doctor statistics")
	}
	d.logCorrupt(corrupt)

	positions := make(map[string]int)
	specialties := make([]doctorDomain.SpecialtyCount, 0)
	for _, doctor := range doctors {
		key := cryptoService.NormalizeIndexValue(doctor.Specialty)
		if i, ok := positions[key]; ok {
			specialties[i].Count++
			continue
		}
		positions[key] = len(specialties)
		specialties = append(specialties, doctorDomain.SpecialtyCount{Specialty: doctor.Specialty, Count: 1})
	}

	slices.SortStableFunc(specialties, func(a, b doctorDomain.SpecialtyCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Specialty, b.Specialty)
	})

	return &doctorDomain.Stats{
		TotalDoctors:   len(doctors) + len(corrupt),
		Specialties:    specialties,
		CorruptRecords: len(corrupt),
	}, nil
}

func (d *doctorUseCase) logCorrupt(corrupt []*cryptoDomain.CorruptRecordError) {
	for _, record := range corrupt {
		d.logger.Warn("doctor record omitted: encrypted field failed to open",
			slog.String("doctor_id", record.RecordID),
			slog.Any("fields", record.FieldNames()),
		)
	}
}

// NewDoctorUseCase creates a new DoctorUseCase.
func NewDoctorUseCase(
	doctorRepo DoctorRepository,
	accessor *cryptoService.FieldAccessor,
	logger *slog.Logger,
) DoctorUseCase {
	return &doctorUseCase{
		doctorRepo: doctorRepo,
		accessor:   accessor,
		logger:     logger,
		now:        time.Now,
		newCode:    doctorDomain.NewCode,
	}
}
