// internal/middleware/middleware_test.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readsphere/readsphere-api/internal/config"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) CurrentUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f[id]; ok && user.Active {
		return user, nil
	}
	return nil, errors.New("user not found")
}

func authRouter(users fakeUsers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	whoami := func(c *gin.Context) {
		id, ok := GetUserID(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.String())
	}
	r.GET("/private", AuthRequired(users), whoami)
	r.GET("/admin", AuthRequired(users), AdminRequired(), whoami)
	r.GET("/public", OptionalAuth(users), whoami)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")

	reader := &models.User{Name: "Reader", Active: true}
	reader.ID = uuid.New()
	suspended := &models.User{Name: "Suspended", Active: false}
	suspended.ID = uuid.New()
	r := authRouter(fakeUsers{reader.ID: reader, suspended.ID: suspended})

	readerToken, err := utils.GenerateJWT(reader.ID, reader.Name, false, 1)
	require.NoError(t, err)
	suspendedToken, err := utils.GenerateJWT(suspended.ID, suspended.Name, false, 1)
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"no header", "/private", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/private", "Token " + readerToken, http.StatusUnauthorized, ""},
		{"valid token", "/private", "Bearer " + readerToken, http.StatusOK, reader.ID.String()},
		{"lowercase scheme", "/private", "bearer " + readerToken, http.StatusOK, reader.ID.String()},
		{"inactive account", "/private", "Bearer " + suspendedToken, http.StatusUnauthorized, ""},
		{"not an admin", "/admin", "Bearer " + readerToken, http.StatusForbidden, ""},
		{"optional without token", "/public", "", http.StatusOK, "anonymous"},
		{"optional with garbage", "/public", "Bearer garbage", http.StatusOK, "anonymous"},
		{"optional with token", "/public", "Bearer " + readerToken, http.StatusOK, reader.ID.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestResolveLanguage(t *testing.T) {
	tests := map[string]string{
		"":                        "en",
		"zh-TW,zh;q=0.9,en;q=0.8": "zh_TW",
		"fr-FR,fr;q=0.9":          "en",
		"de-DE,en-US;q=0.8":       "en",
		"ja-JP, zh-Hant;q=0.7":    "zh_TW",
		"en-GB":                   "en",
	}

	for header, want := range tests {
		assert.Equal(t, want, resolveLanguage(header), "header %q", header)
	}
}

func TestExtractResource(t *testing.T) {
	assert.Equal(t, "books", extractResourceType("/api/books/6f1c1a52-59b8-4a4e-9c3e-0c6b1f0b7d11/cover"))
	assert.Equal(t, "reviews", extractResourceType("/api/reviews"))
	assert.Equal(t, "health", extractResourceType("/health"))

	id, ok := extractResourceID("/api/books/6f1c1a52-59b8-4a4e-9c3e-0c6b1f0b7d11/cover")
	assert.True(t, ok)
	assert.Equal(t, "6f1c1a52-59b8-4a4e-9c3e-0c6b1f0b7d11", id.String())

	_, ok = extractResourceID("/api/books")
	assert.False(t, ok)
}

func TestRateLimitsRejectBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limits := NewRateLimits(config.RateLimitConfig{Enabled: true, RequestsPerSec: 1, Burst: 2, AuthPerMinute: 1})
	defer limits.Stop()

	r := gin.New()
	r.GET("/ping", limits.General(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limits := NewRateLimits(config.RateLimitConfig{Enabled: false})
	defer limits.Stop()

	r := gin.New()
	r.GET("/ping", limits.Auth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Regexp(t, `^req_[A-Za-z0-9]{16}$`, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req_upstream")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req_upstream", w.Header().Get(RequestIDHeader))
}
