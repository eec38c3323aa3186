package handler

import (
	accessapp "github.com/backoffice/backend/internal/application/access"
	"github.com/backoffice/backend/internal/domain/access"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GrantHandler administers direct access grants. All routes require a
// global administrator.
type GrantHandler struct {
	BaseHandler
	grants *accessapp.GrantService
}

// NewGrantHandler creates a new GrantHandler
func NewGrantHandler(grants *accessapp.GrantService) *GrantHandler {
	return &GrantHandler{grants: grants}
}

// GrantRequest identifies one (user, kind, entity) grant
type GrantRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	Kind     string    `json:"kind" binding:"required"`
	EntityID uuid.UUID `json:"entity_id" binding:"required"`
	Level    int       `json:"level"`
}

// RegisterRoutes registers the grant administration routes
func (h *GrantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grants := rg.Group("/access")
	grants.POST("/grants", h.Grant)
	grants.DELETE("/grants", h.Revoke)
	grants.POST("/users/:id/cache-invalidation", h.InvalidateUserCache)
}

// Grant creates a live grant; granting twice is a no-op
func (h *GrantHandler) Grant(c *gin.Context) {
	principal, _ := principalAndTeam(c)
	if principal == nil || !principal.IsGlobalAdmin {
		h.Forbidden(c)
		return
	}

	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	kind := access.EntityKind(req.Kind)
	if !kind.IsValid() {
		h.BadRequest(c, "unknown entity kind "+req.Kind)
		return
	}
	level := access.GrantLevel(req.Level)
	if level == 0 {
		level = access.GrantLevelView
	}

	if err := h.grants.Grant(c.Request.Context(), req.UserID, kind, req.EntityID, level); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Revoke soft-deletes the live grant; revoking an absent grant is a no-op
func (h *GrantHandler) Revoke(c *gin.Context) {
	principal, _ := principalAndTeam(c)
	if principal == nil || !principal.IsGlobalAdmin {
		h.Forbidden(c)
		return
	}

	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	kind := access.EntityKind(req.Kind)
	if !kind.IsValid() {
		h.BadRequest(c, "unknown entity kind "+req.Kind)
		return
	}

	if err := h.grants.Revoke(c.Request.Context(), req.UserID, kind, req.EntityID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// InvalidateUserCache drops every cached accessible set for a user.
// Used after bulk role changes performed outside the grant endpoints.
func (h *GrantHandler) InvalidateUserCache(c *gin.Context) {
	principal, _ := principalAndTeam(c)
	if principal == nil || !principal.IsGlobalAdmin {
		h.Forbidden(c)
		return
	}

	userID, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid user ID")
		return
	}
	h.grants.InvalidateUserCache(c.Request.Context(), userID)
	h.NoContent(c)
}
