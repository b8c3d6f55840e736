package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	authUseCase "github.com/allisson/careportal/internal/auth/usecase"
	apperrors "github.com/allisson/careportal/internal/errors"
	"github.com/allisson/careportal/internal/httputil"
)

// AuthenticationMiddleware resolves the principal of a request.
//
// The session token is read from the session cookie, or from a legacy
// "Authorization: Bearer <token>" header. Its signature and expiry are verified and the
// user is loaded from storage.
//
// Error handling:
//   - Missing, invalid or expired token, unknown or unverified user → 401 with a generic
//     body, and the session cookie is cleared
//   - Other errors → 500 Internal Server Error
//
// Usage:
//
//	guarded := router.Group("/v1", AuthenticationMiddleware(userUseCase, cookies, logger))
//	guarded.GET("/auth/me", handler.MeHandler)
func AuthenticationMiddleware(
	userUseCase authUseCase.UserUseCase,
	cookies CookieConfig,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookies)
		if token == "" {
			logger.Debug("authentication failed: missing session token")
			rejectUnauthenticated(c, cookies, apperrors.ErrUnauthorized, logger)
			return
		}

		user, err := userUseCase.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrUnauthorized) {
				logger.Debug("authentication failed", slog.String("reason", err.Error()))
				rejectUnauthenticated(c, cookies, apperrors.ErrUnauthorized, logger)
				return
			}
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), user))

		logger.Debug("authentication successful",
			slog.String("user_id", user.ID.String()),
			slog.String("role", string(user.Role)),
		)

		c.Next()
	}
}

// AuthorizationMiddleware requires the principal's role to grant at least one of
// required. It must run after AuthenticationMiddleware.
//
// Error handling:
//   - No principal in context → 401 Unauthorized
//   - Role grants none of required → 403 Forbidden
func AuthorizationMiddleware(logger *slog.Logger, required ...authDomain.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetPrincipal(c.Request.Context())
		if !ok {
			logger.Debug("authorization failed: no principal in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !user.Role.Allows(required...) {
			logger.Debug("authorization failed: insufficient permissions",
				slog.String("user_id", user.ID.String()),
				slog.String("role", string(user.Role)),
				slog.Any("required", required),
			)
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

func rejectUnauthenticated(c *gin.Context, cookies CookieConfig, err error, logger *slog.Logger) {
	clearSessionCookie(c, cookies)
	httputil.HandleErrorGin(c, err, logger)
	c.Abort()
}
