// Package auth validates the bearer tokens the thin HTTP layer accepts.
// Sessions, refresh flows and login live in the identity provider; this
// system only needs a verified principal per request.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrMissingUserID = errors.New("missing user_id in claims")
)

// Claims represents custom JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID        string   `json:"user_id"`
	TeamID        string   `json:"team_id,omitempty"`
	IsGlobalAdmin bool     `json:"is_global_admin,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
}

// JWTService handles JWT token operations
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: 24 * time.Hour,
	}
}

// GenerateToken issues a signed token for a principal; used by tests and
// by operators minting service tokens.
func (s *JWTService) GenerateToken(userID uuid.UUID, teamID uuid.UUID, isGlobalAdmin bool, permissions []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:        userID.String(),
		TeamID:        teamID.String(),
		IsGlobalAdmin: isGlobalAdmin,
		Permissions:   permissions,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken parses and verifies a token, returning its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// Principal converts claims into the domain principal
func (c *Claims) Principal() (*access.Principal, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, ErrInvalidClaims
	}
	return &access.Principal{UserID: userID, IsGlobalAdmin: c.IsGlobalAdmin}, nil
}

// Team returns the team context carried by the claims; a token without a
// team yields the zero context.
func (c *Claims) Team() access.TeamContext {
	if c.TeamID == "" {
		return access.TeamContext{}
	}
	teamID, err := uuid.Parse(c.TeamID)
	if err != nil {
		return access.TeamContext{}
	}
	return access.TeamContext{TeamID: teamID}
}

// permissionsContextKey carries token permissions through the request
// context so the permission checker can see them.
type permissionsContextKey struct{}

// WithPermissions stores the token's permission list on the context
func WithPermissions(ctx context.Context, permissions []string) context.Context {
	return context.WithValue(ctx, permissionsContextKey{}, permissions)
}

// ClaimsPermissionChecker answers coarse permission checks from the
// permission list embedded in the validated token. The RBAC system that
// assigns those permissions is an external collaborator.
type ClaimsPermissionChecker struct{}

// NewClaimsPermissionChecker creates a claims-backed permission checker
func NewClaimsPermissionChecker() *ClaimsPermissionChecker {
	return &ClaimsPermissionChecker{}
}

// HasPermission reports whether the request's token carries the permission
func (p *ClaimsPermissionChecker) HasPermission(ctx context.Context, _ access.TeamContext, _ uuid.UUID, permission string) (bool, error) {
	permissions, _ := ctx.Value(permissionsContextKey{}).([]string)
	for _, granted := range permissions {
		if granted == permission || granted == "*" {
			return true, nil
		}
	}
	return false, nil
}

// Ensure ClaimsPermissionChecker implements PermissionChecker
var _ access.PermissionChecker = (*ClaimsPermissionChecker)(nil)
