// Package dto provides the request and response shapes of the user account endpoints.
package dto

import (
	authDomain "github.com/allisson/careportal/internal/auth/domain"
)

// SignupRequest is the public signup body. Field rules are enforced by the use case so
// the create-user command shares them.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToDomain converts the request into a signup input.
func (r *SignupRequest) ToDomain() *authDomain.SignupInput {
	return &authDomain.SignupInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
	}
}

// LoginRequest is the login body. It is deliberately not validated: any malformed
// credential is reported as the same generic authentication failure.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToDomain converts the request into a login input.
func (r *LoginRequest) ToDomain() *authDomain.LoginInput {
	return &authDomain.LoginInput{
		Email:    r.Email,
		Password: r.Password,
	}
}
