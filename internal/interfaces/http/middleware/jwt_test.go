package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/infrastructure/auth"
	"github.com/screentime/backend/internal/infrastructure/config"
)

func newAuthTestRouter(svc *auth.JWTService) (*gin.Engine, *directory.Scope) {
	gin.SetMode(gin.TestMode)

	var captured directory.Scope
	engine := gin.New()
	engine.Use(JWTAuthMiddleware(JWTMiddlewareConfig{
		Service:   svc,
		SkipPaths: []string{"/health"},
	}))
	engine.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	engine.GET("/protected", func(c *gin.Context) {
		scope, ok := GetScope(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		captured = scope
		c.Status(http.StatusOK)
	})
	return engine, &captured
}

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "middleware-test-secret-0123456789ab",
		AccessTokenExpiration: time.Hour,
		Issuer:                "screentime-test",
	})
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	engine, _ := newAuthTestRouter(testJWTService())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
}

func TestJWTAuthMiddleware_InvalidToken(t *testing.T) {
	engine, _ := newAuthTestRouter(testJWTService())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+"garbage")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := testJWTService()
	engine, captured := newAuthTestRouter(svc)
	userID := uuid.New()

	token, _, err := svc.GenerateToken(userID, auth.RoleParent)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, captured.UserID)
	assert.False(t, captured.Elevated)
}

func TestJWTAuthMiddleware_AdminGetsElevatedScope(t *testing.T) {
	svc := testJWTService()
	engine, captured := newAuthTestRouter(svc)

	token, _, err := svc.GenerateToken(uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, captured.Elevated)
}

func TestJWTAuthMiddleware_SkipPath(t *testing.T) {
	engine, _ := newAuthTestRouter(testJWTService())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetScope_HeaderFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	engine := gin.New()
	engine.GET("/", func(c *gin.Context) {
		scope, ok := GetScope(c)
		require.True(t, ok)
		assert.Equal(t, userID, scope.UserID)
		assert.True(t, scope.Elevated)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, userID.String())
	req.Header.Set(UserRoleHeader, auth.RoleAdmin)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetScope_NoIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.GET("/", func(c *gin.Context) {
		_, ok := GetScope(c)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
