package repository

import (
	"context"
	"database/sql"
	"strings"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	"github.com/allisson/careportal/internal/database"
	apperrors "github.com/allisson/careportal/internal/errors"
)

// MySQLAuditLogRepository implements AuditLog persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLAuditLogRepository struct {
	db       *sql.DB
	accessor *cryptoService.FieldAccessor
}

// Create inserts a new AuditLog. Nil metadata is stored as NULL.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	row, metadataJSON, err := sealAuditLog(m.accessor, auditLog)
	if err != nil {
		return err
	}

	id, err := row.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log id")
	}

	query := `INSERT INTO audit_logs (id, actor, action, record_type, record_id, network_origin,
			  user_agent, outcome, metadata, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	var conditions []string
	var args []any

	if filter.CreatedAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.CreatedAtFrom)
	}

	if filter.CreatedAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.CreatedAtTo)
	}

	query := `SELECT id, actor, action, record_type, record_id, network_origin, user_agent,
			  outcome, metadata, signature, created_at
			  FROM audit_logs`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

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
		var id []byte
		var metadataJSON []byte
		var outcome string

		err := rows.Scan(
			&id,
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

		if err := auditLog.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log id")
		}

		auditLog.Outcome = auditDomain.Outcome(outcome)
		if err := openAuditLog(m.accessor, &auditLog, metadataJSON); err != nil {
			return nil, err
		}

		auditLogs = append(auditLogs, &auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}

	return auditLogs, nil
}

// NewMySQLAuditLogRepository creates a new MySQL AuditLog repository.
func NewMySQLAuditLogRepository(db *sql.DB, accessor *cryptoService.FieldAccessor) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db, accessor: accessor}
}
