package service

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
)

// fieldCipher implements FieldCipher over a single AEAD instance.
//
// cipher.AEAD.Seal appends the tag after the ciphertext; the stored envelope puts it
// right after the nonce, so both directions reorder the sealed bytes.
type fieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher creates a FieldCipher bound to the loaded field key.
func NewFieldCipher(key *cryptoDomain.FieldKey) (FieldCipher, error) {
	aead, err := newAEAD(key.Bytes(), key.Algorithm())
	if err != nil {
		return nil, err
	}
	return &fieldCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (f *fieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, cryptoDomain.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := f.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ctLen := len(sealed) - cryptoDomain.TagSize

	envelope := make([]byte, 0, cryptoDomain.EnvelopeOverhead+ctLen)
	envelope = append(envelope, nonce...)
	envelope = append(envelope, sealed[ctLen:]...)
	envelope = append(envelope, sealed[:ctLen]...)

	return base64.StdEncoding.EncodeToString(envelope), nil
}

// Decrypt verifies and opens an envelope produced by Encrypt.
func (f *fieldCipher) Decrypt(envelope string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", cryptoDomain.ErrAuthenticationFailure
	}
	if len(raw) < cryptoDomain.EnvelopeOverhead {
		return "", cryptoDomain.ErrAuthenticationFailure
	}

	nonce := raw[:cryptoDomain.NonceSize]
	tag := raw[cryptoDomain.NonceSize:cryptoDomain.EnvelopeOverhead]
	ciphertext := raw[cryptoDomain.EnvelopeOverhead:]

	sealed := make([]byte, 0, len(ciphertext)+cryptoDomain.TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := f.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", cryptoDomain.ErrAuthenticationFailure
	}

	return string(plaintext), nil
}
