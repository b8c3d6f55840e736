package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/allisson/careportal/internal/config"
)

// corsExposedHeaders are readable by the console; the doctor export sets the last two.
var corsExposedHeaders = []string{"X-Request-Id", "X-Corrupt-Records", "Content-Disposition"}

// createCORSMiddleware returns the CORS middleware for the browser console, or nil when
// CORS_ENABLED is false. CORS_ALLOW_ORIGINS takes precedence; without it the origin of
// CLIENT_URL is allowed. Credentials are allowed so the session cookie travels.
func createCORSMiddleware(cfg *config.Config, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.CORSEnabled {
		return nil
	}

	origins := parseOrigins(cfg.CORSAllowOrigins)
	if len(origins) == 0 {
		if origin := originOf(cfg.ClientURL); origin != "" {
			origins = []string{origin}
		}
	}
	if len(origins) == 0 {
		logger.Warn("CORS enabled but neither CORS_ALLOW_ORIGINS nor CLIENT_URL yield an origin")
		return nil
	}

	logger.Info("CORS enabled", slog.Any("origins", origins))

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
		},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// parseOrigins splits a comma-separated origin list, dropping blanks and trailing slashes.
func parseOrigins(value string) []string {
	var origins []string
	for _, part := range strings.Split(value, ",") {
		if origin := strings.TrimRight(strings.TrimSpace(part), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// originOf reduces a URL such as https://console.example.com/app to its scheme and host.
func originOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
