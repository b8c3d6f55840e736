// Package service provides the credential primitives behind signup, login and the
// session guard: password hashing, verification tokens and signed session tokens.
package service

import (
	"time"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
)

// PasswordService hashes and verifies user passwords.
type PasswordService interface {
	Hash(password string) (string, error)

	// Compare reports whether password matches hash. Malformed hashes never match.
	Compare(password, hash string) bool
}

// TokenService generates single-use verification tokens.
//
// Only the SHA-256 hash of a token is stored; the plain token is mailed once and then
// looked up by hashing the value presented on the verification link.
type TokenService interface {
	GenerateToken() (plainToken string, tokenHash string, err error)
	HashToken(plainToken string) string
	Valid(plainToken string) bool
}

// SessionService issues and verifies the signed session tokens carried by the session
// cookie or the legacy bearer header.
type SessionService interface {
	Issue(user *authDomain.User) (token string, expiresAt time.Time, err error)

	// Parse verifies signature and expiry. It returns ErrSessionExpired for expired
	// tokens and ErrInvalidSession for anything else that does not verify.
	Parse(token string) (*authDomain.SessionClaims, error)
}
