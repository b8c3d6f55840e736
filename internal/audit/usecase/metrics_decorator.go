package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	"github.com/allisson/careportal/internal/metrics"
)

// auditRecordType labels corrupt audit records in metrics.
const auditRecordType = "AuditLog"

// auditLogUseCaseWithMetrics decorates AuditLogUseCase with metrics instrumentation.
type auditLogUseCaseWithMetrics struct {
	next    AuditLogUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditLogUseCaseWithMetrics wraps an AuditLogUseCase with metrics recording.
func NewAuditLogUseCaseWithMetrics(useCase AuditLogUseCase, m metrics.BusinessMetrics) AuditLogUseCase {
	return &auditLogUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *auditLogUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", operation, status)
	a.metrics.RecordDuration(ctx, "audit", operation, time.Since(start), status)
}

// Record records the audit write result alongside the operation metrics.
func (a *auditLogUseCaseWithMetrics) Record(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	start := time.Now()
	err := a.next.Record(ctx, auditLog)
	a.record(ctx, "audit_log_record", start, err)

	if err != nil {
		a.metrics.RecordAuditWrite(ctx, "error")
	} else {
		a.metrics.RecordAuditWrite(ctx, "success")
	}
	return err
}

// List records metrics for audit log listings and counts records with a corrupt actor.
func (a *auditLogUseCaseWithMetrics) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditLog, error) {
	start := time.Now()
	auditLogs, err := a.next.List(ctx, filter)
	a.record(ctx, "audit_log_list", start, err)

	for _, auditLog := range auditLogs {
		if auditLog.ActorCorrupt {
			a.metrics.RecordCorruptRecord(ctx, auditRecordType)
		}
	}
	return auditLogs, err
}

// VerifyBatch records metrics for batch verification.
func (a *auditLogUseCaseWithMetrics) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*auditDomain.VerificationReport, error) {
	startedAt := time.Now()
	report, err := a.next.VerifyBatch(ctx, start, end)
	a.record(ctx, "audit_log_verify_batch", startedAt, err)
	return report, err
}
