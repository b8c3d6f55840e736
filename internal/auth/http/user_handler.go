package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	auditHTTP "github.com/allisson/careportal/internal/audit/http"
	"github.com/allisson/careportal/internal/auth/http/dto"
	authUseCase "github.com/allisson/careportal/internal/auth/usecase"
	apperrors "github.com/allisson/careportal/internal/errors"
	"github.com/allisson/careportal/internal/httputil"
)

// UserHandler handles signup, verification, login, logout and profile requests.
type UserHandler struct {
	userUseCase authUseCase.UserUseCase
	cookies     CookieConfig
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userUseCase authUseCase.UserUseCase, cookies CookieConfig, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		cookies:     cookies,
		logger:      logger,
	}
}

// SignupHandler registers an unverified Admin and queues the verification email.
// POST /v1/auth/signup - Returns 201 Created with the user profile.
func (h *UserHandler) SignupHandler(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	auditHTTP.SetSubmittedEmail(c, req.Email)

	output, err := h.userUseCase.Signup(c.Request.Context(), req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.SetTargetID(c, output.User.ID.String())
	auditHTTP.SetActor(c, auditDomain.Actor{ID: output.User.ID.String(), Role: string(output.User.Role)})

	c.JSON(http.StatusCreated, dto.MapUserToResponse(output.User))
}

// VerifyHandler confirms an email address from the mailed link.
// GET /v1/auth/verify/:token - Returns 200 OK with the verified profile.
func (h *UserHandler) VerifyHandler(c *gin.Context) {
	user, err := h.userUseCase.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.SetTargetID(c, user.ID.String())
	auditHTTP.SetActor(c, auditDomain.Actor{ID: user.ID.String(), Role: string(user.Role)})

	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}

// LoginHandler issues a session. The token is set as an HTTP-only cookie and also
// returned in the body for bearer clients. Every credential failure returns the same
// 401 body.
// POST /v1/auth/login
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	auditHTTP.SetSubmittedEmail(c, req.Email)

	output, err := h.userUseCase.Login(c.Request.Context(), req.ToDomain())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			h.logger.Info("login rejected", slog.String("reason", err.Error()))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, nil)
			return
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.SetTargetID(c, output.User.ID.String())
	auditHTTP.SetActor(c, auditDomain.Actor{ID: output.User.ID.String(), Role: string(output.User.Role)})

	setSessionCookie(c, h.cookies, output.Token, output.ExpiresAt)
	c.JSON(http.StatusOK, dto.MapLoginOutputToResponse(output))
}

// LogoutHandler clears the session cookie. Session tokens are stateless, so a bearer
// token stays valid until it expires.
// POST /v1/auth/logout
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	if user, ok := GetPrincipal(c.Request.Context()); ok {
		auditHTTP.SetTargetID(c, user.ID.String())
	}

	clearSessionCookie(c, h.cookies)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

// MeHandler returns the profile of the authenticated user.
// GET /v1/auth/me
func (h *UserHandler) MeHandler(c *gin.Context) {
	user, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}
