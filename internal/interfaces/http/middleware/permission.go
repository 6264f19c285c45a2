package middleware

import (
	"net/http"

	"github.com/egp/construction-control/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RequirePermission lets the request through when the token grants any of
// the given permissions. Must run after JWTAuth.
func RequirePermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		for _, p := range permissions {
			if claims.HasPermission(p) {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Permission denied")
	}
}
