package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
)

// blindIndexInfo versions the HKDF derivation of the index key.
const blindIndexInfo = "field-blind-index-v1"

// hmacBlindIndexer implements BlindIndexer with HMAC-SHA256 under a key derived from
// the field key. Values are trimmed and lowercased first, so lookups are
// case-insensitive exact matches.
type hmacBlindIndexer struct {
	key []byte
}

// NewBlindIndexer derives the index key from the field key.
func NewBlindIndexer(key *cryptoDomain.FieldKey) (BlindIndexer, error) {
	derived, err := deriveKey(key.Bytes(), blindIndexInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to derive blind index key: %w", err)
	}
	return &hmacBlindIndexer{key: derived}, nil
}

// BlindIndex returns the hex HMAC of scope and the normalized value.
func (b *hmacBlindIndexer) BlindIndex(scope, value string) string {
	mac := hmac.New(sha256.New, b.key)
	mac.Write([]byte(scope))
	mac.Write([]byte{0})
	mac.Write([]byte(NormalizeIndexValue(value)))
	return hex.EncodeToString(mac.Sum(nil))
}

// NormalizeIndexValue is the normalization applied before indexing.
func NormalizeIndexValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// DeriveSubkey expands a 32-byte purpose-bound subkey from the field key. info names and
// versions the purpose, e.g. "audit-log-signing-v1".
func DeriveSubkey(key *cryptoDomain.FieldKey, info string) ([]byte, error) {
	return deriveKey(key.Bytes(), info)
}

// deriveKey expands a 32-byte subkey from the field key with HKDF-SHA256.
func deriveKey(fieldKey []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, fieldKey, nil, []byte(info))
	derived := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, err
	}
	return derived, nil
}
