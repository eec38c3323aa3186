// Package middleware contains the gin middleware of the HTTP layer.
package middleware

import (
	"net/http"
	"strings"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/infrastructure/auth"
	"github.com/backoffice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Context keys
const (
	PrincipalKey  = "auth_principal"
	TeamKey       = "auth_team"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// RequireAuth validates the bearer token and stores the principal and
// team context on the request. A missing or invalid token is the
// authentication-required outcome, 401, never 403.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" || !strings.HasPrefix(header, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse("UNAUTHORIZED", "authentication required"))
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse("UNAUTHORIZED", "invalid or expired token"))
			return
		}
		principal, err := claims.Principal()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse("UNAUTHORIZED", "invalid token claims"))
			return
		}

		c.Set(PrincipalKey, principal)
		c.Set(TeamKey, claims.Team())
		c.Request = c.Request.WithContext(
			auth.WithPermissions(c.Request.Context(), claims.Permissions))
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, nil when absent
func PrincipalFrom(c *gin.Context) *access.Principal {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	principal, _ := v.(*access.Principal)
	return principal
}

// TeamFrom returns the request's team context
func TeamFrom(c *gin.Context) access.TeamContext {
	v, ok := c.Get(TeamKey)
	if !ok {
		return access.TeamContext{}
	}
	team, _ := v.(access.TeamContext)
	return team
}
