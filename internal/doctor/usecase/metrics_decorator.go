package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
	"github.com/allisson/careportal/internal/metrics"
)

const doctorRecordType = "Doctor"

// doctorUseCaseWithMetrics decorates DoctorUseCase with metrics instrumentation.
type doctorUseCaseWithMetrics struct {
	next    DoctorUseCase
	metrics metrics.BusinessMetrics
}

// NewDoctorUseCaseWithMetrics wraps a DoctorUseCase with metrics recording.
func NewDoctorUseCaseWithMetrics(useCase DoctorUseCase, m metrics.BusinessMetrics) DoctorUseCase {
	return &doctorUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *doctorUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "doctors", operation, status)
	d.metrics.RecordDuration(ctx, "doctors", operation, time.Since(start), status)
}

func (d *doctorUseCaseWithMetrics) recordCorrupt(ctx context.Context, count int) {
	for range count {
		d.metrics.RecordCorruptRecord(ctx, doctorRecordType)
	}
}

// Create records metrics for doctor creation.
func (d *doctorUseCaseWithMetrics) Create(
	ctx context.Context,
	input *doctorDomain.CreateDoctorInput,
) (*doctorDomain.Doctor, error) {
	start := time.Now()
	doctor, err := d.next.Create(ctx, input)
	d.record(ctx, "doctor_create", start, err)
	return doctor, err
}

// List records metrics for doctor listing and counts omitted corrupt rows.
func (d *doctorUseCaseWithMetrics) List(
	ctx context.Context,
	filter doctorDomain.ListFilter,
) (*doctorDomain.ListOutput, error) {
	start := time.Now()
	output, err := d.next.List(ctx, filter)
	d.record(ctx, "doctor_list", start, err)
	if output != nil {
		d.recordCorrupt(ctx, output.CorruptRecords)
	}
	return output, err
}

// Get records metrics for doctor retrieval.
func (d *doctorUseCaseWithMetrics) Get(ctx context.Context, doctorID uuid.UUID) (*doctorDomain.Doctor, error) {
	start := time.Now()
	doctor, err := d.next.Get(ctx, doctorID)
	d.record(ctx, "doctor_get", start, err)
	return doctor, err
}

// Update records metrics for doctor updates.
func (d *doctorUseCaseWithMetrics) Update(
	ctx context.Context,
	doctorID uuid.UUID,
	input *doctorDomain.UpdateDoctorInput,
) (*doctorDomain.Doctor, error) {
	start := time.Now()
	doctor, err := d.next.Update(ctx, doctorID, input)
	d.record(ctx, "doctor_update", start, err)
	return doctor, err
}

// Deactivate records metrics for doctor deactivation.
func (d *doctorUseCaseWithMetrics) Deactivate(
	ctx context.Context,
	doctorID, by uuid.UUID,
) (*doctorDomain.Doctor, error) {
	start := time.Now()
	doctor, err := d.next.Deactivate(ctx, doctorID, by)
	d.record(ctx, "doctor_deactivate", start, err)
	return doctor, err
}

// Reactivate records metrics for doctor reactivation.
func (d *doctorUseCaseWithMetrics) Reactivate(
	ctx context.Context,
	doctorID uuid.UUID,
) (*doctorDomain.Doctor, error) {
	start := time.Now()
	doctor, err := d.next.Reactivate(ctx, doctorID)
	d.record(ctx, "doctor_reactivate", start, err)
	return doctor, err
}

// Export records metrics for doctor export.
func (d *doctorUseCaseWithMetrics) Export(ctx context.Context) (*doctorDomain.ExportOutput, error) {
	start := time.Now()
	output, err := d.next.Export(ctx)
	d.record(ctx, "doctor_export", start, err)
	if output != nil {
		d.recordCorrupt(ctx, output.CorruptRecords)
	}
	return output, err
}

// Stats records metrics for doctor statistics.
func (d *doctorUseCaseWithMetrics) Stats(ctx context.Context) (*doctorDomain.Stats, error) {
	start := time.Now()
	stats, err := d.next.Stats(ctx)
	d.record(ctx, "doctor_stats", start, err)
	if stats != nil {
		d.recordCorrupt(ctx, stats.CorruptRecords)
	}
	return stats, err
}
