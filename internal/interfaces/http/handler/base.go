// Package handler contains the gin HTTP handlers. Handlers stay thin:
// bind, authorize through the gate, delegate, map errors.
package handler

import (
	"net/http"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/interfaces/http/dto"
	"github.com/backoffice/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// OK sends a 200 response with the given payload
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// List sends a 200 response with the list envelope. A nil slice still
// renders as {"data": []}.
func (h *BaseHandler) List(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewListResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", message))
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden,
		dto.NewErrorResponse("FORBIDDEN", "access to this resource is forbidden"))
}

// HandleError maps a domain error to its HTTP status and body
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	status, body := dto.MapError(err)
	c.JSON(status, body)
}

// parseID reads the :id path parameter as a UUID
func parseID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// principalAndTeam extracts the authenticated principal and team context
// stored by the auth middleware.
func principalAndTeam(c *gin.Context) (*access.Principal, access.TeamContext) {
	return middleware.PrincipalFrom(c), middleware.TeamFrom(c)
}
