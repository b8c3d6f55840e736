package dto

import (
	"encoding/csv"
	"io"
	"time"

	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
)

// DoctorResponse is the API view of a doctor with decrypted contact fields.
type DoctorResponse struct {
	ID            string     `json:"id"`
	DoctorCode    string     `json:"doctor_code"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Specialty     string     `json:"specialty"`
	Status        string     `json:"status"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	DeactivatedBy *string    `json:"deactivated_by,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MapDoctorToResponse converts a domain doctor to an API response.
func MapDoctorToResponse(doctor *doctorDomain.Doctor) DoctorResponse {
	response := DoctorResponse{
		ID:            doctor.ID.String(),
		DoctorCode:    doctor.Code,
		Name:          doctor.Name,
		Email:         doctor.Email,
		Phone:         doctor.Phone,
		Specialty:     doctor.Specialty,
		Status:        string(doctor.Status),
		DeactivatedAt: doctor.DeactivatedAt,
		CreatedBy:     doctor.CreatedBy.String(),
		CreatedAt:     doctor.CreatedAt,
		UpdatedAt:     doctor.UpdatedAt,
	}
	if doctor.DeactivatedBy != nil {
		by := doctor.DeactivatedBy.String()
		response.DeactivatedBy = &by
	}
	return response
}

// Pagination describes the page returned by the list endpoint.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// ListDoctorsResponse is one page of doctors. CorruptRecords counts rows of the page
// that could not be decrypted and were left out.
type ListDoctorsResponse struct {
	Data           []DoctorResponse `json:"data"`
	Pagination     Pagination       `json:"pagination"`
	CorruptRecords int              `json:"corrupt_records"`
}

// MapListOutputToResponse converts a list output to an API response.
func MapListOutputToResponse(output *doctorDomain.ListOutput, offset, limit int) ListDoctorsResponse {
	data := make([]DoctorResponse, 0, len(output.Doctors))
	for _, doctor := range output.Doctors {
		data = append(data, MapDoctorToResponse(doctor))
	}

	return ListDoctorsResponse{
		Data: data,
		Pagination: Pagination{
			Offset: offset,
			Limit:  limit,
			Total:  output.Total,
		},
		CorruptRecords: output.CorruptRecords,
	}
}

// ExportedDoctor is one entry of a JSON export.
type ExportedDoctor struct {
	DoctorCode string `json:"doctor_code"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Specialty  string `json:"specialty"`
	Status     string `json:"status"`
}

// MapDoctorsToExport converts doctors to their JSON export form.
func MapDoctorsToExport(doctors []*doctorDomain.Doctor) []ExportedDoctor {
	exported := make([]ExportedDoctor, 0, len(doctors))
	for _, doctor := range doctors {
		exported = append(exported, ExportedDoctor{
			DoctorCode: doctor.Code,
			Name:       doctor.Name,
			Email:      doctor.Email,
			Phone:      doctor.Phone,
			Specialty:  doctor.Specialty,
			Status:     string(doctor.Status),
		})
	}
	return exported
}

var csvHeader = []string{"Doctor Code", "Name", "Email", "Phone", "Specialty", "Status"}

// WriteDoctorsCSV writes doctors as CSV with a header row.
func WriteDoctorsCSV(w io.Writer, doctors []*doctorDomain.Doctor) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, doctor := range doctors {
		record := []string{
			doctor.Code,
			doctor.Name,
			doctor.Email,
			doctor.Phone,
			doctor.Specialty,
			string(doctor.Status),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SpecialtyCountResponse is the number of doctors sharing a specialty.
type SpecialtyCountResponse struct {
	Specialty string `json:"specialty"`
	Count     int    `json:"count"`
}

// StatsResponse summarizes the doctor directory.
type StatsResponse struct {
	TotalDoctors   int                      `json:"total_doctors"`
	Specialties    []SpecialtyCountResponse `json:"specialties"`
	CorruptRecords int                      `json:"corrupt_records"`
}

// MapStatsToResponse converts directory statistics to an API response.
func MapStatsToResponse(stats *doctorDomain.Stats) StatsResponse {
	specialties := make([]SpecialtyCountResponse, 0, len(stats.Specialties))
	for _, s := range stats.Specialties {
		specialties = append(specialties, SpecialtyCountResponse{Specialty: s.Specialty, Count: s.Count})
	}
	return StatsResponse{
		TotalDoctors:   stats.TotalDoctors,
		Specialties:    specialties,
		CorruptRecords: stats.CorruptRecords,
	}
}
