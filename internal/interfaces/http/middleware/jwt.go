package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/infrastructure/auth"
	"github.com/screentime/backend/internal/interfaces/http/dto"
)

// Context keys and header constants
const (
	ScopeKey      = "auth_scope"
	ClaimsKey     = "auth_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	// Development fallback headers, honored only when no token is present
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// Service validates access tokens
	Service *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// JWTAuthMiddleware validates bearer tokens and stores the requester's
// device scope in the gin context. Admin tokens get elevated scope.
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, cfg, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, cfg, dto.ErrCodeTokenInvalid, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, cfg, dto.ErrCodeTokenInvalid, "Missing token")
			return
		}

		claims, err := cfg.Service.ValidateToken(tokenString)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Token validation failed",
					zap.Error(err),
					zap.String("path", path))
			}
			code := dto.ErrCodeTokenInvalid
			if err == auth.ErrExpiredToken {
				code = dto.ErrCodeTokenExpired
			}
			abortUnauthorized(c, cfg, code, "Token validation failed")
			return
		}

		userID, err := claims.GetUserUUID()
		if err != nil {
			abortUnauthorized(c, cfg, dto.ErrCodeTokenInvalid, "Token subject is not a valid user ID")
			return
		}

		scope := directory.OwnerScope(userID)
		if claims.IsAdmin() {
			scope = directory.ElevatedScope(userID)
		}

		c.Set(ClaimsKey, claims)
		c.Set(ScopeKey, scope)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, cfg JWTMiddlewareConfig, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message))
}

// GetScope retrieves the requester's device scope from the gin context.
// When no token was presented (skip paths, development setups) it falls
// back to the X-User-ID / X-User-Role headers.
func GetScope(c *gin.Context) (directory.Scope, bool) {
	if v, exists := c.Get(ScopeKey); exists {
		if scope, ok := v.(directory.Scope); ok {
			return scope, true
		}
	}

	if raw := c.GetHeader(UserIDHeader); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return directory.Scope{}, false
		}
		if c.GetHeader(UserRoleHeader) == auth.RoleAdmin {
			return directory.ElevatedScope(userID), true
		}
		return directory.OwnerScope(userID), true
	}

	return directory.Scope{}, false
}

// GetClaims retrieves the validated JWT claims from the gin context
func GetClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(ClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
