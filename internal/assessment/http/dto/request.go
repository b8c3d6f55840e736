// Package dto provides the request and response shapes of the assessment endpoints.
package dto

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
	customValidation "github.com/allisson/careportal/internal/validation"
)

// PatientRequest identifies the assessed patient.
type PatientRequest struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Age       *int   `json:"age"`
	Gender    string `json:"gender"`
	Contact   string `json:"contact"`
}

// Validate checks the patient section.
func (r PatientRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Age, validation.Min(0), validation.Max(150)),
	)
}

func (r PatientRequest) toDomain() assessmentDomain.PatientInfo {
	return assessmentDomain.PatientInfo{
		PatientID: r.PatientID,
		Name:      r.Name,
		Age:       r.Age,
		Gender:    r.Gender,
		Contact:   r.Contact,
	}
}

// DetailsRequest describes what is assessed.
type DetailsRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

// Validate checks the details section.
func (r DetailsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, customValidation.NotBlank),
	)
}

func (r DetailsRequest) toDomain() assessmentDomain.Details {
	return assessmentDomain.Details{
		Type:        r.Type,
		Description: r.Description,
		Notes:       r.Notes,
	}
}

// SchedulingRequest places the assessment in time.
type SchedulingRequest struct {
	ScheduledDate *time.Time `json:"scheduled_date"`
	Doctor        string     `json:"doctor"`
	Location      string     `json:"location"`
}

func (r SchedulingRequest) toDomain() assessmentDomain.Scheduling {
	return assessmentDomain.Scheduling{
		ScheduledDate: r.ScheduledDate,
		Doctor:        r.Doctor,
		Location:      r.Location,
	}
}

// ConsentRequest records patient consent. The consenting party is required once consent
// is given.
type ConsentRequest struct {
	Given bool       `json:"given"`
	Date  *time.Time `json:"date"`
	By    string     `json:"by"`
}

// Validate checks the consent section.
func (r ConsentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.By, validation.When(r.Given, validation.Required, customValidation.NotBlank)),
	)
}

func (r ConsentRequest) toDomain() assessmentDomain.Consent {
	return assessmentDomain.Consent{
		Given: r.Given,
		Date:  r.Date,
		By:    r.By,
	}
}

// CreateAssessmentRequest is the body of POST /v1/assessments.
type CreateAssessmentRequest struct {
	Patient    PatientRequest    `json:"patient"`
	Details    DetailsRequest    `json:"details"`
	Scheduling SchedulingRequest `json:"scheduling"`
	Consent    ConsentRequest    `json:"consent"`
}

// Validate checks every section of the request.
func (r *CreateAssessmentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Patient),
		validation.Field(&r.Details),
		validation.Field(&r.Consent),
	)
}

// ToDomain converts the request into a create input on behalf of createdBy.
func (r *CreateAssessmentRequest) ToDomain(createdBy uuid.UUID) *assessmentDomain.CreateAssessmentInput {
	return &assessmentDomain.CreateAssessmentInput{
		Patient:    r.Patient.toDomain(),
		Details:    r.Details.toDomain(),
		Scheduling: r.Scheduling.toDomain(),
		Consent:    r.Consent.toDomain(),
		CreatedBy:  createdBy,
	}
}

// UpdateAssessmentRequest is the body of PUT /v1/assessments/:id. Each present section
// replaces the stored one; omitted sections are kept.
type UpdateAssessmentRequest struct {
	Patient    *PatientRequest    `json:"patient"`
	Details    *DetailsRequest    `json:"details"`
	Scheduling *SchedulingRequest `json:"scheduling"`
	Consent    *ConsentRequest    `json:"consent"`
}

// Validate checks the sections present in the request.
func (r *UpdateAssessmentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Patient),
		validation.Field(&r.Details),
		validation.Field(&r.Consent),
	)
}

// ToDomain converts the request into an update input.
func (r *UpdateAssessmentRequest) ToDomain() *assessmentDomain.UpdateAssessmentInput {
	input := &assessmentDomain.UpdateAssessmentInput{}
	if r.Patient != nil {
		patient := r.Patient.toDomain()
		input.Patient = &patient
	}
	if r.Details != nil {
		details := r.Details.toDomain()
		input.Details = &details
	}
	if r.Scheduling != nil {
		scheduling := r.Scheduling.toDomain()
		input.Scheduling = &scheduling
	}
	if r.Consent != nil {
		consent := r.Consent.toDomain()
		input.Consent = &consent
	}
	return input
}
