// Package usecase orchestrates the audit trail: recording signed entries, listing them
// for review and verifying their integrity.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
)

// AuditLogRepository persists audit records. Implementations seal the actor before
// writing and set ActorCorrupt on read when the actor envelope does not open, instead of
// failing the whole listing.
type AuditLogRepository interface {
	// Create appends a record. Records are never updated or deleted.
	Create(ctx context.Context, auditLog *auditDomain.AuditLog) error

	// List returns records newest first. Both created_at bounds are inclusive.
	List(ctx context.Context, filter auditDomain.ListFilter) ([]*auditDomain.AuditLog, error)
}

// AuditLogUseCase defines the audit trail operations.
type AuditLogUseCase interface {
	// Record assigns an id and a millisecond precision timestamp to auditLog, signs it
	// and persists it.
	Record(ctx context.Context, auditLog *auditDomain.AuditLog) error

	// List returns a page of records newest first with the actor decrypted. Records
	// whose actor could not be decrypted are returned with ActorCorrupt set.
	List(ctx context.Context, filter auditDomain.ListFilter) ([]*auditDomain.AuditLog, error)

	// VerifyBatch checks the signature of every record created within [start, end].
	VerifyBatch(ctx context.Context, start, end time.Time) (*auditDomain.VerificationReport, error)
}
