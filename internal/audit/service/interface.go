// Package service provides the audit trail primitives: record signing and client network
// origin resolution.
package service

import (
	"context"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
)

// AuditSigner computes and checks the HMAC-SHA256 signature of audit records.
//
// The signing key is derived from the field key, so a signature can only be produced or
// checked by a process holding that key.
type AuditSigner interface {
	// Sign returns the 32-byte signature of the record's canonical encoding.
	Sign(log *auditDomain.AuditLog) ([]byte, error)

	// Verify returns ErrSignatureInvalid when log.Signature does not match.
	Verify(log *auditDomain.AuditLog) error
}

// IPResolver resolves the network origin recorded for a request from the locally
// observed client address. Resolve never fails: when a better address cannot be found in
// time it returns clientIP unchanged.
type IPResolver interface {
	Resolve(ctx context.Context, clientIP string) string
}
