package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	auditService "github.com/allisson/careportal/internal/audit/service"
	apperrors "github.com/allisson/careportal/internal/errors"
)

// verifyPageSize is the number of records loaded per page by VerifyBatch.
const verifyPageSize = 500

type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	signer       auditService.AuditSigner
	logger       *slog.Logger
	now          func() time.Time
}

// Record signs and appends an audit record. Mongo stores milliseconds, so the timestamp
// is truncated before signing to keep signatures portable across stores.
func (a *auditLogUseCase) Record(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	auditLog.ID = uuid.Must(uuid.NewV7())
	auditLog.CreatedAt = a.now().UTC().Truncate(time.Millisecond)

	signature, err := a.signer.Sign(auditLog)
	if err != nil {
		return apperrors.Wrap(err, "failed to sign audit log")
	}
	auditLog.Signature = signature

	if err := a.auditLogRepo.Create(ctx, auditLog); err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// List retrieves audit records newest first.
func (a *auditLogUseCase) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditLog, error) {
	if filter.CreatedAtFrom != nil && filter.CreatedAtTo != nil &&
		filter.CreatedAtFrom.After(*filter.CreatedAtTo) {
		return nil, auditDomain.ErrInvalidDateRange
	}

	auditLogs, err := a.auditLogRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}

	for _, auditLog := range auditLogs {
		if auditLog.ActorCorrupt {
			a.logger.Warn("audit log actor could not be decrypted",
				slog.String("audit_log_id", auditLog.ID.String()),
			)
		}
	}

	return auditLogs, nil
}

// VerifyBatch walks every record in [start, end] and checks its signature. Records
// without a signature are counted as unsigned; records whose actor no longer decrypts
// cannot be re-encoded and are counted as invalid.
func (a *auditLogUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*auditDomain.VerificationReport, error) {
	if start.After(end) {
		return nil, auditDomain.ErrInvalidDateRange
	}

	report := &auditDomain.VerificationReport{InvalidLogs: make([]uuid.UUID, 0)}
	filter := auditDomain.ListFilter{
		Limit:         verifyPageSize,
		CreatedAtFrom: &start,
		CreatedAtTo:   &end,
	}

	for {
		auditLogs, err := a.auditLogRepo.List(ctx, filter)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list audit logs")
		}

		for _, auditLog := range auditLogs {
			report.TotalChecked++

			if len(auditLog.Signature) == 0 {
				report.UnsignedCount++
				continue
			}
			report.SignedCount++

			if auditLog.ActorCorrupt {
				report.InvalidCount++
				report.InvalidLogs = append(report.InvalidLogs, auditLog.ID)
				continue
			}

			if err := a.signer.Verify(auditLog); err != nil {
				if !errors.Is(err, auditDomain.ErrSignatureInvalid) {
					return nil, apperrors.Wrap(err, "failed to verify audit log")
				}
				report.InvalidCount++
				report.InvalidLogs = append(report.InvalidLogs, auditLog.ID)
				continue
			}
			report.ValidCount++
		}

		if len(auditLogs) < verifyPageSize {
			break
		}
		filter.Offset += verifyPageSize
	}

	return report, nil
}

// NewAuditLogUseCase creates a new AuditLogUseCase.
func NewAuditLogUseCase(
	auditLogRepo AuditLogRepository,
	signer auditService.AuditSigner,
	logger *slog.Logger,
) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		signer:       signer,
		logger:       logger,
		now:          time.Now,
	}
}
