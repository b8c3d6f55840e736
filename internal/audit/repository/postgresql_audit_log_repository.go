// Package repository implements audit trail persistence.
//
// PostgreSQL and MySQL implementations share the audit_logs table layout created by the
// migrations; the MongoDB implementation writes the same fields to a collection. The
// actor is sealed by the field accessor before every write.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	"github.com/allisson/careportal/internal/database"
	apperrors "github.com/allisson/careportal/internal/errors"
)

const auditLogRecordType = "AuditLog"

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
type PostgreSQLAuditLogRepository struct {
	db       *sql.DB
	accessor *cryptoService.FieldAccessor
}

// Create inserts a new AuditLog. Nil metadata is stored as NULL.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	row, metadataJSON, err := sealAuditLog(p.accessor, auditLog)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs (id, actor, action, record_type, record_id, network_origin,
			  user_agent, outcome, metadata, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = querier.ExecContext(
		ctx,
		query,
		row.ID,
		row.Actor,
		row.Action,
		row.RecordType,
		row.RecordID,
		row.NetworkOrigin,
		row.UserAgent,
		string(row.Outcome),
		metadataJSON,
		row.Signature,
		row.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// List retrieves audit logs ordered by created_at descending with optional inclusive
// created_at bounds.
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	var conditions []string
	var args []any

	if filter.CreatedAtFrom != nil {
		args = append(args, *filter.CreatedAtFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if filter.CreatedAtTo != nil {
		args = append(args, *filter.CreatedAtTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, actor, action, record_type, record_id, network_origin, user_agent,
			  outcome, metadata, signature, created_at
			  FROM audit_logs`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	auditLogs := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		var auditLog auditDomain.AuditLog
		var metadataJSON []byte
		var outcome string

		err := rows.Scan(
			&auditLog.ID,
			&auditLog.Actor,
			&auditLog.Action,
			&auditLog.RecordType,
			&auditLog.RecordID,
			&auditLog.NetworkOrigin,
			&auditLog.UserAgent,
			&outcome,
			&metadataJSON,
			&auditLog.Signature,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}

		auditLog.Outcome = auditDomain.Outcome(outcome)
		if err := openAuditLog(p.accessor, &auditLog, metadataJSON); err != nil {
			return nil, err
		}

		auditLogs = append(auditLogs, &auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}

	return auditLogs, nil
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLog repository.
func NewPostgreSQLAuditLogRepository(
	db *sql.DB,
	accessor *cryptoService.FieldAccessor,
) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db, accessor: accessor}
}

// sealAuditLog returns a sealed copy of auditLog and its encoded metadata.
func sealAuditLog(
	accessor *cryptoService.FieldAccessor,
	auditLog *auditDomain.AuditLog,
) (*auditDomain.AuditLog, []byte, error) {
	row := *auditLog
	if err := accessor.Seal(&row); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to seal audit log")
	}

	var metadataJSON []byte
	if auditLog.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(auditLog.Metadata)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to marshal audit log metadata")
		}
	}

	return &row, metadataJSON, nil
}

// openAuditLog decodes metadata and opens the actor. An actor that does not decrypt
// flags the record instead of failing the listing.
func openAuditLog(
	accessor *cryptoService.FieldAccessor,
	auditLog *auditDomain.AuditLog,
	metadataJSON []byte,
) error {
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &auditLog.Metadata); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal audit log metadata")
		}
	}

	err := accessor.Open(auditLog, auditLogRecordType, auditLog.ID.String())
	if err == nil {
		return nil
	}

	var corrupt *cryptoDomain.CorruptRecordError
	if errors.As(err, &corrupt) {
		auditLog.ActorCorrupt = true
		return nil
	}
	return apperrors.Wrap(err, "failed to open audit log")
}
