// Package dto provides the audit log API response shapes.
package dto

import (
	"time"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
)

// AuditLogResponse represents an audit log entry in API responses. Actor is empty and
// ActorCorrupt true when the stored actor could not be decrypted.
type AuditLogResponse struct {
	ID            string         `json:"id"`
	Actor         string         `json:"actor"`
	ActorCorrupt  bool           `json:"actor_corrupt"`
	Action        string         `json:"action"`
	RecordType    string         `json:"record_type"`
	RecordID      *string        `json:"record_id"`
	NetworkOrigin string         `json:"network_origin"`
	UserAgent     string         `json:"user_agent"`
	Outcome       string         `json:"outcome"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Signed        bool           `json:"signed"`
	CreatedAt     time.Time      `json:"created_at"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
func MapAuditLogToResponse(auditLog *auditDomain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:            auditLog.ID.String(),
		Actor:         auditLog.Actor,
		ActorCorrupt:  auditLog.ActorCorrupt,
		Action:        auditLog.Action,
		RecordType:    auditLog.RecordType,
		RecordID:      auditLog.RecordID,
		NetworkOrigin: auditLog.NetworkOrigin,
		UserAgent:     auditLog.UserAgent,
		Outcome:       string(auditLog.Outcome),
		Metadata:      auditLog.Metadata,
		Signed:        len(auditLog.Signature) > 0,
		CreatedAt:     auditLog.CreatedAt,
	}
}

// ListAuditLogsResponse represents a page of audit logs.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list API response.
func MapAuditLogsToListResponse(auditLogs []*auditDomain.AuditLog) ListAuditLogsResponse {
	responses := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		responses = append(responses, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{Data: responses}
}
