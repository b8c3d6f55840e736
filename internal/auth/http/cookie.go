package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// DefaultCookieName is used when CookieConfig.Name is empty.
const DefaultCookieName = "authToken"

func (cfg CookieConfig) name() string {
	if cfg.Name == "" {
		return DefaultCookieName
	}
	return cfg.Name
}

// setSessionCookie writes an HTTP-only, SameSite=Strict cookie that expires with the
// session token.
func setSessionCookie(c *gin.Context, cfg CookieConfig, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.name(),
		Value:    token,
		Path:     "/",
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the session cookie on the client.
func clearSessionCookie(c *gin.Context, cfg CookieConfig) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.name(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// sessionToken returns the token from the session cookie, falling back to a legacy
// "Authorization: Bearer" header.
func sessionToken(c *gin.Context, cfg CookieConfig) string {
	if token, err := c.Cookie(cfg.name()); err == nil && token != "" {
		return token
	}

	const bearerPrefix = "bearer "
	header := c.GetHeader("Authorization")
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return header[len(bearerPrefix):]
	}
	return ""
}
