// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	assessmentHTTP "github.com/allisson/careportal/internal/assessment/http"
	auditHTTP "github.com/allisson/careportal/internal/audit/http"
	authDomain "github.com/allisson/careportal/internal/auth/domain"
	authHTTP "github.com/allisson/careportal/internal/auth/http"
	authUseCase "github.com/allisson/careportal/internal/auth/usecase"
	"github.com/allisson/careportal/internal/config"
	doctorHTTP "github.com/allisson/careportal/internal/doctor/http"
	"github.com/allisson/careportal/internal/metrics"
)

// Audit record types of the routes below.
const (
	doctorRecordType     = "Doctor"
	assessmentRecordType = "Assessment"
)

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	logger *slog.Logger
	router *gin.Engine
}

// Handlers groups the request handlers mounted by SetupRouter.
type Handlers struct {
	User       *authHTTP.UserHandler
	Doctor     *doctorHTTP.DoctorHandler
	Assessment *assessmentHTTP.AssessmentHandler
	AuditLog   *auditHTTP.AuditLogHandler
}

// NewServer creates a new HTTP server. The router is installed by SetupRouter.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with every route and its middleware chain.
//
// ctx bounds background goroutines started by middleware, such as the rate limiter's
// cleanup loop. metricsProvider may be nil when metrics are disabled.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	userUseCase authUseCase.UserUseCase,
	recorder *auditHTTP.Recorder,
	metricsProvider *metrics.Provider,
) error {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(
			metricsProvider.MeterProvider(),
			cfg.MetricsNamespace,
			"/health",
			"/ready",
		))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	cookies := authHTTP.CookieConfig{Name: cfg.SessionCookieName, Secure: cfg.SessionCookieSecure}
	v1 := router.Group("/v1")

	// Unauthenticated endpoints
	public := v1.Group("/auth")
	if cfg.RateLimitAuthEnabled {
		public.Use(authHTTP.IPRateLimitMiddleware(
			ctx,
			cfg.RateLimitAuthRequestsPerSec,
			cfg.RateLimitAuthBurst,
			s.logger,
		))
	}
	public.POST("/signup", recorder.Auth(auditHTTP.AuthSignup), handlers.User.SignupHandler)
	public.GET("/verify/:token", recorder.Auth(auditHTTP.AuthVerify), handlers.User.VerifyHandler)
	public.POST("/login", recorder.Auth(auditHTTP.AuthLogin), handlers.User.LoginHandler)

	guarded := v1.Group("", authHTTP.AuthenticationMiddleware(userUseCase, cookies, s.logger))

	guarded.POST("/auth/logout", recorder.Auth(auditHTTP.AuthLogout), handlers.User.LogoutHandler)
	guarded.GET("/auth/me", handlers.User.MeHandler)

	doctors := guarded.Group("/doctors")
	{
		doctors.POST("",
			recorder.Record("doctors:create", doctorRecordType),
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermDoctorsCreate),
			handlers.Doctor.CreateHandler,
		)
		doctors.GET("",
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermDoctorsRead),
			handlers.Doctor.ListHandler,
		)
		doctors.GET("/export",
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermDoctorsRead),
			handlers.Doctor.ExportHandler,
		)
		doctors.GET("/stats",
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermDoctorsRead),
			handlers.Doctor.StatsHandler,
		)
		doctors.GET("/:id",
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermDoctorsRead),
			handlers.Doctor.GetHandler,
		)
		doctors.PUT("/:id",
			recorder.Record("doctors:update", doctorRecordType),
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermDoctorsUpdate),
			handlers.Doctor.UpdateHandler,
		)
		doctors.POST("/:id/deactivate",
			recorder.Record("doctors:deactivate", doctorRecordType),
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermDoctorsDelete),
			handlers.Doctor.DeactivateHandler,
		)
		doctors.POST("/:id/reactivate",
			recorder.Record("doctors:reactivate", doctorRecordType),
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermDoctorsUpdate),
			handlers.Doctor.ReactivateHandler,
		)
	}

	assessments := guarded.Group("/assessments")
	{
		assessments.POST("",
			recorder.Record("assessments:create", assessmentRecordType),
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermAssessmentsCreate),
			handlers.Assessment.CreateHandler,
		)
		assessments.GET("",
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermAssessmentsRead),
			handlers.Assessment.ListHandler,
		)
		assessments.GET("/:id",
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermAssessmentsRead),
			handlers.Assessment.GetHandler,
		)
		assessments.PUT("/:id",
			recorder.Record("assessments:update", assessmentRecordType),
			authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermAssessmentsUpdate),
			handlers.Assessment.UpdateHandler,
		)
	}

	guarded.GET("/audit-logs",
		authHTTP.AuthorizationMiddleware(s.logger, authDomain.PermAuditRead),
		handlers.AuditLog.ListHandler,
	)

	s.router = router
	s.server.Handler = router
	return nil
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.server.Handler == nil && s.router != nil {
		s.server.Handler = s.router
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports that the process is up.
// GET /health
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the database is reachable.
// GET /ready
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "ok"
	if s.db == nil {
		database = "error"
	} else if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.String("component", "database"), slog.Any("error", err))
		database = "error"
	}

	if database != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": database},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": database},
	})
}
