package dto

import (
	"time"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
)

// AssessmentResponse is the API view of an assessment with decrypted fields.
type AssessmentResponse struct {
	ID         string            `json:"id"`
	Patient    PatientRequest    `json:"patient"`
	Details    DetailsRequest    `json:"details"`
	Scheduling SchedulingRequest `json:"scheduling"`
	Consent    ConsentRequest    `json:"consent"`
	CreatedBy  string            `json:"created_by"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// MapAssessmentToResponse converts a domain assessment to an API response.
func MapAssessmentToResponse(a *assessmentDomain.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID: a.ID.String(),
		Patient: PatientRequest{
			PatientID: a.Patient.PatientID,
			Name:      a.Patient.Name,
			Age:       a.Patient.Age,
			Gender:    a.Patient.Gender,
			Contact:   a.Patient.Contact,
		},
		Details: DetailsRequest{
			Type:        a.Details.Type,
			Description: a.Details.Description,
			Notes:       a.Details.Notes,
		},
		Scheduling: SchedulingRequest{
			ScheduledDate: a.Scheduling.ScheduledDate,
			Doctor:        a.Scheduling.Doctor,
			Location:      a.Scheduling.Location,
		},
		Consent: ConsentRequest{
			Given: a.Consent.Given,
			Date:  a.Consent.Date,
			By:    a.Consent.By,
		},
		CreatedBy: a.CreatedBy.String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// Pagination describes the page returned by the list endpoint.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ListAssessmentsResponse is one page of assessments. CorruptRecords counts rows of the
// page that could not be decrypted and were left out.
type ListAssessmentsResponse struct {
	Data           []AssessmentResponse `json:"data"`
	Pagination     Pagination           `json:"pagination"`
	CorruptRecords int                  `json:"corrupt_records"`
}

// MapListOutputToResponse converts a list output to an API response.
func MapListOutputToResponse(
	output *assessmentDomain.ListOutput,
	offset, limit int,
) ListAssessmentsResponse {
	data := make([]AssessmentResponse, 0, len(output.Assessments))
	for _, assessment := range output.Assessments {
		data = append(data, MapAssessmentToResponse(assessment))
	}

	return ListAssessmentsResponse{
		Data:           data,
		Pagination:     Pagination{Offset: offset, Limit: limit},
		CorruptRecords: output.CorruptRecords,
	}
}
