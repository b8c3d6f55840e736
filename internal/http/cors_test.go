package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/careportal/internal/config"
)

func corsRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	middleware := createCORSMiddleware(cfg, slog.Default())
	require.NotNil(t, middleware)

	router := gin.New()
	router.Use(middleware)
	router.GET("/v1/doctors/export", func(c *gin.Context) {
		c.Header("X-Corrupt-Records", "0")
		c.String(http.StatusOK, "id,name\n")
	})
	router.POST("/v1/doctors", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func TestCreateCORSMiddleware(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := &config.Config{CORSEnabled: false, CORSAllowOrigins: "https://console.example.com"}
		assert.Nil(t, createCORSMiddleware(cfg, slog.Default()))
	})

	t.Run("no origins and no client url", func(t *testing.T) {
		cfg := &config.Config{CORSEnabled: true}
		assert.Nil(t, createCORSMiddleware(cfg, slog.Default()))
	})

	t.Run("client url is not absolute", func(t *testing.T) {
		cfg := &config.Config{CORSEnabled: true, ClientURL: "console.example.com"}
		assert.Nil(t, createCORSMiddleware(cfg, slog.Default()))
	})
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t,
		[]string{"https://console.example.com", "https://admin.example.com"},
		parseOrigins(" https://console.example.com/ ,, https://admin.example.com "),
	)
	assert.Nil(t, parseOrigins(""))
}

func TestOriginOf(t *testing.T) {
	assert.Equal(t, "https://console.example.com", originOf("https://console.example.com/app/verify"))
	assert.Equal(t, "http://localhost:5173", originOf("http://localhost:5173"))
	assert.Empty(t, originOf("/relative/path"))
	assert.Empty(t, originOf(""))
}

func TestCORS_AllowedOrigin(t *testing.T) {
	router := corsRouter(t, &config.Config{
		CORSEnabled:      true,
		CORSAllowOrigins: "https://console.example.com",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/doctors/export", nil)
	req.Header.Set("Origin", "https://console.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://console.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Corrupt-Records")
}

func TestCORS_ClientURLFallback(t *testing.T) {
	router := corsRouter(t, &config.Config{
		CORSEnabled: true,
		ClientURL:   "http://localhost:5173/login",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/doctors", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestCORS_ForeignOriginRejected(t *testing.T) {
	router := corsRouter(t, &config.Config{
		CORSEnabled:      true,
		CORSAllowOrigins: "https://console.example.com",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/doctors/export", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
