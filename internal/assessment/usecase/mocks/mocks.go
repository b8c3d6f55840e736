// Package mocks provides testify mocks of the assessment use case for handler tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
)

// MockAssessmentUseCase is a mock implementation of usecase.AssessmentUseCase.
type MockAssessmentUseCase struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockAssessmentUseCase) Create(
	ctx context.Context,
	input *assessmentDomain.CreateAssessmentInput,
) (*assessmentDomain.Assessment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessmentDomain.Assessment), args.Error(1)
}

// Update mocks the Update method.
func (m *MockAssessmentUseCase) Update(
	ctx context.Context,
	assessmentID uuid.UUID,
	input *assessmentDomain.UpdateAssessmentInput,
) (*assessmentDomain.Assessment, error) {
	args := m.Called(ctx, assessmentID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessmentDomain.Assessment), args.Error(1)
}

// Get mocks the Get method.
func (m *MockAssessmentUseCase) Get(
	ctx context.Context,
	assessmentID uuid.UUID,
) (*assessmentDomain.Assessment, error) {
	args := m.Called(ctx, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessmentDomain.Assessment), args.Error(1)
}

// List mocks the List method.
func (m *MockAssessmentUseCase) List(
	ctx context.Context,
	filter assessmentDomain.ListFilter,
) (*assessmentDomain.ListOutput, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessmentDomain.ListOutput), args.Error(1)
}
