// Package domain defines the doctor directory entity, its lifecycle states and the
// filters used to search it.
package domain

import (
	"crypto/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a Doctor.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Blind index scopes of the searchable doctor fields.
const (
	NameScope      = "doctor.name"
	EmailScope     = "doctor.email"
	PhoneScope     = "doctor.phone"
	SpecialtyScope = "doctor.specialty"
)

// Doctor is an entry of the doctor directory. Contact details are stored encrypted,
// each with a blind index for exact-match search.
type Doctor struct {
	ID             uuid.UUID
	Code           string
	Name           string `pii:"encrypt,index=NameIndex,scope=doctor.name"`
	NameIndex      string
	Email          string `pii:"encrypt,index=EmailIndex,scope=doctor.email"`
	EmailIndex     string
	Phone          string `pii:"encrypt,index=PhoneIndex,scope=doctor.phone"`
	PhoneIndex     string
	Specialty      string `pii:"encrypt,index=SpecialtyIndex,scope=doctor.specialty"`
	SpecialtyIndex string
	Status         Status
	DeactivatedAt  *time.Time
	DeactivatedBy  *uuid.UUID
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Deactivate marks the doctor inactive on behalf of by.
func (d *Doctor) Deactivate(by uuid.UUID, at time.Time) error {
	if d.Status == StatusInactive {
		return ErrDoctorAlreadyInactive
	}
	d.Status = StatusInactive
	d.DeactivatedAt = &at
	d.DeactivatedBy = &by
	return nil
}

// Reactivate marks the doctor active again and clears the deactivation trail.
func (d *Doctor) Reactivate() error {
	if d.Status == StatusActive {
		return ErrDoctorAlreadyActive
	}
	d.Status = StatusActive
	d.DeactivatedAt = nil
	d.DeactivatedBy = nil
	return nil
}

// CreateDoctorInput holds the fields of a new doctor. CreatedBy is the principal.
type CreateDoctorInput struct {
	Name      string
	Email     string
	Phone     string
	Specialty string
	CreatedBy uuid.UUID
}

// UpdateDoctorInput holds a partial update. Nil fields are left unchanged.
type UpdateDoctorInput struct {
	Name      *string
	Email     *string
	Phone     *string
	Specialty *string
}

// ListFilter selects doctors for the list endpoint. A nil Status returns every state.
// Search is matched exactly against the doctor code or, after normalization, against
// the blind index of any encrypted field.
type ListFilter struct {
	Status *Status
	Search string
	Offset int
	Limit  int
}

// SearchFilter is the repository form of ListFilter with the search term already
// turned into a code and per-field blind indexes. A zero Limit means no limit.
type SearchFilter struct {
	Status         *Status
	Code           string
	NameIndex      string
	EmailIndex     string
	PhoneIndex     string
	SpecialtyIndex string
	Offset         int
	Limit          int
}

// HasSearch reports whether any search term is set.
func (f SearchFilter) HasSearch() bool {
	return f.Code != "" || f.NameIndex != "" || f.EmailIndex != "" || f.PhoneIndex != "" ||
		f.SpecialtyIndex != ""
}

// ListOutput is one page of doctors. CorruptRecords counts rows of the page that were
// omitted because an encrypted field failed to open.
type ListOutput struct {
	Doctors        []*Doctor
	Total          int
	CorruptRecords int
}

// ExportOutput holds every readable doctor for export.
type ExportOutput struct {
	Doctors        []*Doctor
	CorruptRecords int
}

// SpecialtyCount is the number of doctors sharing a specialty.
type SpecialtyCount struct {
	Specialty string
	Count     int
}

// Stats summarizes the directory. Specialties are ordered by count, then name.
type Stats struct {
	TotalDoctors   int
	Specialties    []SpecialtyCount
	CorruptRecords int
}

const (
	codePrefix   = "DR-"
	codeLength   = 6
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var codeRegex = regexp.MustCompile(`^DR-[A-Z0-9]{6}$`)

// NewCode returns a random doctor code such as "DR-7KQ2MX".
func NewCode() string {
	b := make([]byte, codeLength)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return codePrefix + string(b)
}

// ParseCode returns the canonical form of value when it looks like a doctor code.
func ParseCode(value string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(value))
	return code, codeRegex.MatchString(code)
}

// ParseStatusFilter converts the status query parameter into a filter. An empty value
// selects active doctors and "All" disables the filter.
func ParseStatusFilter(value string) (*Status, error) {
	switch value {
	case "":
		status := StatusActive
		return &status, nil
	case "All":
		return nil, nil
	case string(StatusActive), string(StatusInactive):
		status := Status(value)
		return &status, nil
	default:
		return nil, ErrInvalidStatus
	}
}
