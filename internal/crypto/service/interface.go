// Package service provides field-level encryption: the envelope cipher, the blind index
// used for equality lookups, field key loading and the struct-tag driven field accessor.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
)

// FieldCipher seals and opens individual scalar values.
//
// Encrypt returns base64(nonce || tag || ciphertext) with a fresh random nonce on every
// call. Decrypt returns cryptoDomain.ErrAuthenticationFailure for any envelope that does
// not verify under the loaded key, including malformed, truncated and non-base64 input.
// Implementations are safe for concurrent use.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(envelope string) (string, error)
}

// BlindIndexer computes deterministic lookup values for encrypted attributes.
//
// The scope separates indexes of different attributes so equal plaintexts stored in
// different columns do not produce equal index values.
type BlindIndexer interface {
	BlindIndex(scope, value string) string
}

// KMSService opens gocloud.dev secrets keepers used to wrap the field key.
type KMSService interface {
	// OpenKeeper opens a keeper for keyURI (gcpkms://, awskms://, azurekeyvault://,
	// hashivault:// or base64key://).
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
