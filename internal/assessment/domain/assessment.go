// Package domain defines scheduled patient assessments. Patient identifying details,
// clinical notes and the consenting party are stored encrypted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PatientInfo identifies the assessed patient.
type PatientInfo struct {
	PatientID string
	Name      string `pii:"encrypt"`
	Age       *int
	Gender    string
	Contact   string `pii:"encrypt"`
}

// Details describes what is assessed.
type Details struct {
	Type        string
	Description string
	Notes       string `pii:"encrypt"`
}

// Scheduling places the assessment in time and with a doctor.
type Scheduling struct {
	ScheduledDate *time.Time
	Doctor        string
	Location      string
}

// Consent records whether and by whom consent was given.
type Consent struct {
	Given bool
	Date  *time.Time
	By    string `pii:"encrypt"`
}

// Assessment is a scheduled patient assessment.
type Assessment struct {
	ID         uuid.UUID
	Patient    PatientInfo
	Details    Details
	Scheduling Scheduling
	Consent    Consent
	CreatedBy  uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateAssessmentInput holds a new assessment. CreatedBy is the principal.
type CreateAssessmentInput struct {
	Patient    PatientInfo
	Details    Details
	Scheduling Scheduling
	Consent    Consent
	CreatedBy  uuid.UUID
}

// UpdateAssessmentInput replaces the non-nil sections of an assessment.
type UpdateAssessmentInput struct {
	Patient    *PatientInfo
	Details    *Details
	Scheduling *Scheduling
	Consent    *Consent
}

// ListFilter selects one page of assessments, newest first.
type ListFilter struct {
	Offset int
	Limit  int
}

// ListOutput is one page of assessments. CorruptRecords counts rows of the page that
// were omitted because an encrypted field failed to open.
type ListOutput struct {
	Assessments    []*Assessment
	CorruptRecords int
}
