// Package dto provides the request and response shapes of the doctor directory
// endpoints.
package dto

import (
	"github.com/google/uuid"

	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
)

// CreateDoctorRequest is the body of POST /v1/doctors. Field rules are enforced by the
// use case.
type CreateDoctorRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Specialty string `json:"specialty"`
}

// ToDomain converts the request into a create input on behalf of createdBy.
func (r *CreateDoctorRequest) ToDomain(createdBy uuid.UUID) *doctorDomain.CreateDoctorInput {
	return &doctorDomain.CreateDoctorInput{
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Specialty: r.Specialty,
		CreatedBy: createdBy,
	}
}

// UpdateDoctorRequest is the body of PUT /v1/doctors/:id. Omitted fields keep their
// current value.
type UpdateDoctorRequest struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Specialty *string `json:"specialty"`
}

// ToDomain converts the request into an update input.
func (r *UpdateDoctorRequest) ToDomain() *doctorDomain.UpdateDoctorInput {
	return &doctorDomain.UpdateDoctorInput{
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Specialty: r.Specialty,
	}
}
