package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/careportal/internal/errors"
)

// verificationTokenBytes is the entropy of a verification token.
const verificationTokenBytes = 32

type tokenService struct{}

// NewTokenService creates the TokenService for email verification links.
func NewTokenService() TokenService {
	return &tokenService{}
}

// GenerateToken returns a random token encoded as unpadded base64url, so it can sit in
// the /verify/:token path as is, and the hash under which it is stored.
func (t *tokenService) GenerateToken() (plainToken string, tokenHash string, err error) {
	raw := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate verification token")
	}

	plainToken = base64.RawURLEncoding.EncodeToString(raw)
	return plainToken, t.HashToken(plainToken), nil
}

// HashToken returns the hex SHA-256 of plainToken. Only the hash is persisted.
func (t *tokenService) HashToken(plainToken string) string {
	sum := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(sum[:])
}

// Valid reports whether plainToken has the shape GenerateToken produces.
func (t *tokenService) Valid(plainToken string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(plainToken)
	return err == nil && len(raw) == verificationTokenBytes
}
