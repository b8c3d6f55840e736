// Package http provides the access control guard, the authentication rate limiter and
// the user account handlers.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	authDomain "github.com/allisson/careportal/internal/auth/domain"
)

// principalKey is a context key type for storing the authenticated user.
type principalKey struct{}

// WithPrincipal stores the authenticated user in the context. Called by
// AuthenticationMiddleware; the stored user is never mutated afterwards.
func WithPrincipal(ctx context.Context, user *authDomain.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// GetPrincipal retrieves the authenticated user from the context.
func GetPrincipal(ctx context.Context) (*authDomain.User, bool) {
	user, ok := ctx.Value(principalKey{}).(*authDomain.User)
	return user, ok && user != nil
}

// PrincipalActor resolves the audit actor of a guarded request.
func PrincipalActor(c *gin.Context) (auditDomain.Actor, bool) {
	user, ok := GetPrincipal(c.Request.Context())
	if !ok {
		return auditDomain.Actor{}, false
	}
	return auditDomain.Actor{ID: user.ID.String(), Role: string(user.Role)}, true
}
