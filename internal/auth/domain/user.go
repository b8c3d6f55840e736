package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an operator of the portal and the principal resolved by the guard.
//
// Email is stored encrypted; EmailIndex is its blind index and backs both login lookup
// and the uniqueness constraint.
type User struct {
	ID                    uuid.UUID
	Username              string
	Email                 string `pii:"encrypt,index=EmailIndex,scope=user.email"`
	EmailIndex            string
	PasswordHash          string
	Role                  Role
	IsVerified            bool
	VerificationTokenHash *string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// SignupInput holds the public signup request.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// SignupOutput is returned by signup. VerificationToken is only handed to the outbox
// event that mails it and is never part of an HTTP response.
type SignupOutput struct {
	User              *User
	VerificationToken string
}

// CreateUserInput holds the create-user command arguments.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     Role
}

// LoginInput holds the login request.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput carries the issued session.
type LoginOutput struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

// SessionClaims is the content of a verified session token.
type SessionClaims struct {
	PrincipalID uuid.UUID
	Role        Role
	ExpiresAt   time.Time
}

// VerificationTTL bounds how long an emailed verification link stays valid.
const VerificationTTL = 24 * time.Hour
