package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
	"github.com/allisson/careportal/internal/doctor/usecase"
	usecaseMocks "github.com/allisson/careportal/internal/doctor/usecase/mocks"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordAuditWrite(ctx context.Context, result string) {
	m.Called(ctx, result)
}

func (m *mockBusinessMetrics) RecordCorruptRecord(ctx context.Context, recordType string) {
	m.Called(ctx, recordType)
}

func expectMetrics(m *mockBusinessMetrics, ctx context.Context, operation, status string) {
	m.On("RecordOperation", ctx, "doctors", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "doctors", operation, mock.AnythingOfType("time.Duration"), status).
		Return().
		Once()
}

func TestDoctorUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("List counts corrupt records", func(t *testing.T) {
		mockNext := &usecaseMocks.MockDoctorUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewDoctorUseCaseWithMetrics(mockNext, mockMetrics)

		filter := doctorDomain.ListFilter{Limit: 10}
		output := &doctorDomain.ListOutput{Total: 3, CorruptRecords: 2}

		mockNext.On("List", ctx, filter).Return(output, nil).Once()
		expectMetrics(mockMetrics, ctx, "doctor_list", "success")
		mockMetrics.On("RecordCorruptRecord", ctx, "Doctor").Return().Twice()

		res, err := uc.List(ctx, filter)
		assert.NoError(t, err)
		assert.Equal(t, output, res)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Create error", func(t *testing.T) {
		mockNext := &usecaseMocks.MockDoctorUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewDoctorUseCaseWithMetrics(mockNext, mockMetrics)

		input := &doctorDomain.CreateDoctorInput{Name: "Dr. Who"}
		mockNext.On("Create", ctx, input).Return(nil, doctorDomain.ErrDoctorEmailAlreadyExists).Once()
		expectMetrics(mockMetrics, ctx, "doctor_create", "error")

		_, err := uc.Create(ctx, input)
		assert.ErrorIs(t, err, doctorDomain.ErrDoctorEmailAlreadyExists)
		mockMetrics.AssertExpectations(t)
		mockMetrics.AssertNotCalled(t, "RecordCorruptRecord", mock.Anything, mock.Anything)
	})

	t.Run("Remaining operations", func(t *testing.T) {
		mockNext := &usecaseMocks.MockDoctorUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewDoctorUseCaseWithMetrics(mockNext, mockMetrics)

		doctor := &doctorDomain.Doctor{ID: uuid.Must(uuid.NewV7())}
		by := uuid.Must(uuid.NewV7())
		input := &doctorDomain.UpdateDoctorInput{}

		mockNext.On("Get", ctx, doctor.ID).Return(doctor, nil).Once()
		mockNext.On("Update", ctx, doctor.ID, input).Return(doctor, nil).Once()
		mockNext.On("Deactivate", ctx, doctor.ID, by).Return(nil, doctorDomain.ErrDoctorAlreadyInactive).Once()
		mockNext.On("Reactivate", ctx, doctor.ID).Return(doctor, nil).Once()
		mockNext.On("Export", ctx).Return(&doctorDomain.ExportOutput{CorruptRecords: 1}, nil).Once()
		mockNext.On("Stats", ctx).Return(nil, errors.New("boom")).Once()
		expectMetrics(mockMetrics, ctx, "doctor_get", "success")
		expectMetrics(mockMetrics, ctx, "doctor_update", "success")
		expectMetrics(mockMetrics, ctx, "doctor_deactivate", "error")
		expectMetrics(mockMetrics, ctx, "doctor_reactivate", "success")
		expectMetrics(mockMetrics, ctx, "doctor_export", "success")
		expectMetrics(mockMetrics, ctx, "doctor_stats", "error")
		mockMetrics.On("RecordCorruptRecord", ctx, "Doctor").Return().Once()

		_, _ = uc.Get(ctx, doctor.ID)
		_, _ = uc.Update(ctx, doctor.ID, input)
		_, _ = uc.Deactivate(ctx, doctor.ID, by)
		_, _ = uc.Reactivate(ctx, doctor.ID)
		_, _ = uc.Export(ctx)
		_, _ = uc.Stats(ctx)

		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}
