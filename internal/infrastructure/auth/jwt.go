package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Permissions carried in the token that map to construction privileges
const (
	PermissionDispatch = "construction:dispatch"
	PermissionOfficer  = "construction:officer"

	// PermissionOutboxAdmin grants access to the dead-letter endpoints
	PermissionOutboxAdmin = "construction:outbox_admin"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims are the bearer token claims the service reads
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string   `json:"tenant_id"`
	UserID      string   `json:"user_id"`
	Username    string   `json:"username,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// TenantUUID parses the tenant claim
func (c *Claims) TenantUUID() (uuid.UUID, error) {
	return uuid.Parse(c.TenantID)
}

// UserUUID parses the user claim
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// HasPermission reports whether permission was granted
func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// Privileges resolves the construction privileges of the token holder.
// The user ID must already be valid; ValidateToken checks it.
func (c *Claims) Privileges() construction.ActorPrivileges {
	userID, _ := c.UserUUID()
	return construction.ActorPrivileges{
		ActorID:           userID,
		CanDispatch:       c.HasPermission(PermissionDispatch),
		PrivilegedOfficer: c.HasPermission(PermissionOfficer),
	}
}

// JWTService signs and validates HS256 bearer tokens. Tokens are normally
// issued by the identity service; GenerateToken exists for tooling and tests.
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewJWTService creates a new JWTService
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.Expiration,
	}
}

// TokenInput describes the holder of a new token
type TokenInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Username    string
	Permissions []string
}

// GenerateToken issues a signed token for input
func (s *JWTService) GenerateToken(input TokenInput) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:    input.TenantID.String(),
		UserID:      input.UserID.String(),
		Username:    input.Username,
		Permissions: input.Permissions,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken checks the signature, time claims, issuer and the tenant and
// user claims, and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.TenantUUID(); err != nil {
		return nil, ErrMissingTenantID
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
