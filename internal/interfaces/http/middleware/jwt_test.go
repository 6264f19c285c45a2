package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/egp/construction-control/internal/infrastructure/auth"
	"github.com/egp/construction-control/internal/infrastructure/config"
	"github.com/egp/construction-control/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "construction-control",
		Expiration: expiration,
	})
}

func issue(t *testing.T, svc *auth.JWTService, input auth.TokenInput) string {
	t.Helper()
	token, _, err := svc.GenerateToken(input)
	require.NoError(t, err)
	return token
}

func authRouter(svc *auth.JWTService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuth(JWTConfig{Validator: svc, SkipPaths: []string{"/health"}}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	handlers := append(extra, func(c *gin.Context) {
		tenantID, _ := GetTenantID(c)
		userID, _ := GetUserID(c)
		p := GetPrivileges(c)
		c.JSON(http.StatusOK, gin.H{
			"tenant_id":    tenantID,
			"user_id":      userID,
			"can_dispatch": p.CanDispatch,
			"officer":      p.PrivilegedOfficer,
			"actor_id":     p.ActorID,
		})
	})
	r.GET("/contracts", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	svc := newTestJWT(time.Minute)
	tenantID, userID := uuid.New(), uuid.New()

	t.Run("valid token exposes tenant and privileges", func(t *testing.T) {
		token := issue(t, svc, auth.TokenInput{
			TenantID:    tenantID,
			UserID:      userID,
			Permissions: []string{auth.PermissionDispatch},
		})
		req := httptest.NewRequest(http.MethodGet, "/contracts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		authRouter(svc).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID.String())
		assert.Contains(t, w.Body.String(), `"can_dispatch":true`)
		assert.Contains(t, w.Body.String(), `"officer":false`)
		assert.Contains(t, w.Body.String(), `"actor_id":"`+userID.String()+`"`)
	})

	t.Run("skip paths need no token", func(t *testing.T) {
		w := httptest.NewRecorder()
		authRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", dto.ErrCodeUnauthorized},
		{"empty bearer", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage", "Bearer not-a-jwt", dto.ErrCodeInvalidToken},
		{"expired", "Bearer " + issue(t, newTestJWT(-time.Minute), auth.TokenInput{TenantID: tenantID, UserID: userID}), dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/contracts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			authRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestRequirePermission(t *testing.T) {
	svc := newTestJWT(time.Minute)
	router := authRouter(svc, RequirePermission(auth.PermissionOfficer))

	call := func(perms ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/contracts", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, svc, auth.TokenInput{
			TenantID: uuid.New(), UserID: uuid.New(), Permissions: perms,
		}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call(auth.PermissionOfficer).Code)

	w := call(auth.PermissionDispatch)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
}

func TestRequirePermission_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequirePermission(auth.PermissionOfficer), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
