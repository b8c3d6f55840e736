// Package mocks provides testify mocks of the doctor use case for handler tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
)

// MockDoctorUseCase is a mock implementation of usecase.DoctorUseCase.
type MockDoctorUseCase struct {
	mock.Mock
}

func (m *MockDoctorUseCase) doctor(args mock.Arguments) (*doctorDomain.Doctor, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doctorDomain.Doctor), args.Error(1)
}

// Create mocks the Create method.
func (m *MockDoctorUseCase) Create(
	ctx context.Context,
	input *doctorDomain.CreateDoctorInput,
) (*doctorDomain.Doctor, error) {
	return m.doctor(m.Called(ctx, input))
}

// List mocks the List method.
func (m *MockDoctorUseCase) List(
	ctx context.Context,
	filter doctorDomain.ListFilter,
) (*doctorDomain.ListOutput, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doctorDomain.ListOutput), args.Error(1)
}

// Get mocks the Get method.
func (m *MockDoctorUseCase) Get(ctx context.Context, doctorID uuid.UUID) (*doctorDomain.Doctor, error) {
	return m.doctor(m.Called(ctx, doctorID))
}

// Update mocks the Update method.
func (m *MockDoctorUseCase) Update(
	ctx context.Context,
	doctorID uuid.UUID,
	input *doctorDomain.UpdateDoctorInput,
) (*doctorDomain.Doctor, error) {
	return m.doctor(m.Called(ctx, doctorID, input))
}

// Deactivate mocks the Deactivate method.
func (m *MockDoctorUseCase) Deactivate(
	ctx context.Context,
	doctorID, by uuid.UUID,
) (*doctorDomain.Doctor, error) {
	return m.doctor(m.Called(ctx, doctorID, by))
}

// Reactivate mocks the Reactivate method.
func (m *MockDoctorUseCase) Reactivate(ctx context.Context, doctorID uuid.UUID) (*doctorDomain.Doctor, error) {
	return m.doctor(m.Called(ctx, doctorID))
}

// Export mocks the Export method.
func (m *MockDoctorUseCase) Export(ctx context.Context) (*doctorDomain.ExportOutput, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doctorDomain.ExportOutput), args.Error(1)
}

// Stats mocks the Stats method.
func (m *MockDoctorUseCase) Stats(ctx context.Context) (*doctorDomain.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doctorDomain.Stats), args.Error(1)
}
