package domain

import (
	"context"
	"encoding/base64"
	"fmt"
)

// DevelopmentFieldKey is the well-known key used when no key is configured outside
// production. Anything sealed with it must be considered public.
const DevelopmentFieldKey = "FycXEwZaFnuF7LQ4qEqdpnoQbMY6lScOUO/AlsAWAW8="

// FieldKey is the single 256-bit key protecting every encrypted attribute.
//
// It is loaded once at startup and handed by reference to the field cipher, the blind
// indexer and the audit signer. The raw bytes never leave the process.
type FieldKey struct {
	algorithm Algorithm
	key       []byte
	fallback  bool
}

// NewFieldKey copies key into a new FieldKey. The caller may zero its own slice afterwards.
func NewFieldKey(key []byte, alg Algorithm, fallback bool) (*FieldKey, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	if _, err := ParseAlgorithm(string(alg)); err != nil {
		return nil, err
	}

	owned := make([]byte, KeySize)
	copy(owned, key)

	return &FieldKey{algorithm: alg, key: owned, fallback: fallback}, nil
}

// Algorithm returns the AEAD the key is used with.
func (k *FieldKey) Algorithm() Algorithm {
	return k.algorithm
}

// Bytes returns the raw key material. Callers must not retain or modify it.
func (k *FieldKey) Bytes() []byte {
	return k.key
}

// IsFallback reports whether the key is the development fallback.
func (k *FieldKey) IsFallback() bool {
	return k.fallback
}

// Close zeroes the key material.
func (k *FieldKey) Close() {
	Zero(k.key)
}

// DecodeFieldKey decodes a standard base64 key and checks its length.
func DecodeFieldKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyEncoding, err)
	}
	if len(key) != KeySize {
		Zero(key)
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	return key, nil
}

// KMSKeeper is the subset of *secrets.Keeper used to wrap and unwrap the field key.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// Zero overwrites a byte slice with zeros to clear key material from memory.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
