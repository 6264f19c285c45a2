package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/infrastructure/auth"
	"github.com/egp/construction-control/internal/infrastructure/logger"
	"github.com/egp/construction-control/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// gin context keys set by JWTAuth
const (
	ClaimsKey     = "jwt_claims"
	TenantIDKey   = "tenant_id"
	UserIDKey     = "user_id"
	PrivilegesKey = "actor_privileges"

	bearerPrefix = "Bearer "
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// JWTConfig configures JWTAuth
type JWTConfig struct {
	Validator TokenValidator
	// SkipPaths are matched exactly against the request path
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth authenticates the bearer token and stores the tenant, the user and
// the actor privileges derived from the token's permissions.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) || len(header) == len(bearerPrefix) {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := cfg.Validator.ValidateToken(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			log.Warn("JWT authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			code, message := authErrorCode(err)
			abortWithError(c, http.StatusUnauthorized, code, message)
			return
		}

		// ValidateToken guarantees both ids parse.
		tenantID, _ := claims.TenantUUID()
		userID, _ := claims.UserUUID()

		c.Set(ClaimsKey, claims)
		c.Set(TenantIDKey, tenantID)
		c.Set(UserIDKey, userID)
		c.Set(PrivilegesKey, claims.Privileges())

		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.FromContext(c.Request.Context()), tenantID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeInvalidToken, "Token is not yet valid"
	default:
		return dto.ErrCodeInvalidToken, "Invalid token"
	}
}

// GetClaims returns the validated token claims, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsKey)
	cl, _ := claims.(*auth.Claims)
	return cl
}

// GetTenantID returns the authenticated tenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserID returns the authenticated user
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetPrivileges returns the actor privileges; zero value when unauthenticated
func GetPrivileges(c *gin.Context) construction.ActorPrivileges {
	v, _ := c.Get(PrivilegesKey)
	p, _ := v.(construction.ActorPrivileges)
	return p
}
