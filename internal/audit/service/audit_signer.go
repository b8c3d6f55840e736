package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
)

// signingKeyInfo versions the HKDF derivation of the signing key.
const signingKeyInfo = "audit-log-signing-v1"

type auditSigner struct {
	key []byte
}

// NewAuditSigner derives the signing key from the field key.
func NewAuditSigner(fieldKey *cryptoDomain.FieldKey) (AuditSigner, error) {
	key, err := cryptoService.DeriveSubkey(fieldKey, signingKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to derive audit signing key: %w", err)
	}
	return &auditSigner{key: key}, nil
}

// canonicalizeLog encodes the signed fields of a record.
//
// Format: id || actor || action || record_type || record_id || network_origin ||
// user_agent || outcome || metadata || created_at, where every variable-length field is
// length-prefixed and created_at is Unix milliseconds, the precision every store keeps.
// The actor is signed in plaintext so a record re-sealed under the same key still verifies.
func canonicalizeLog(log *auditDomain.AuditLog) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, log.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(log.Actor))
	buf = appendLengthPrefixed(buf, []byte(log.Action))
	buf = appendLengthPrefixed(buf, []byte(log.RecordType))

	if log.RecordID != nil {
		buf = append(buf, 1)
		buf = appendLengthPrefixed(buf, []byte(*log.RecordID))
	} else {
		buf = append(buf, 0)
	}

	buf = appendLengthPrefixed(buf, []byte(log.NetworkOrigin))
	buf = appendLengthPrefixed(buf, []byte(log.UserAgent))
	buf = appendLengthPrefixed(buf, []byte(log.Outcome))

	if len(log.Metadata) > 0 {
		// encoding/json sorts map keys, which keeps the encoding deterministic.
		metadata, err := json.Marshal(log.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadata)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = binary.BigEndian.AppendUint64(buf, uint64(log.CreatedAt.UnixMilli()))
	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	if uint64(len(data)) > math.MaxUint32 {
		panic("data length exceeds uint32 max")
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// Sign generates the HMAC-SHA256 signature of the record.
func (a *auditSigner) Sign(log *auditDomain.AuditLog) ([]byte, error) {
	canonical, err := canonicalizeLog(log)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize log: %w", err)
	}

	mac := hmac.New(sha256.New, a.key)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks log.Signature in constant time.
func (a *auditSigner) Verify(log *auditDomain.AuditLog) error {
	expected, err := a.Sign(log)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(log.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}
	return nil
}
