// Package dto defines the wire shapes of the thin HTTP layer.
package dto

import (
	"errors"
	"net/http"

	"github.com/backoffice/backend/internal/domain/shared"
)

// ListResponse is the list contract: always {"data": [...]}, with an
// empty array (never an error) for "authenticated, zero accessible rows".
type ListResponse struct {
	Data interface{} `json:"data"`
}

// NewListResponse wraps a slice in the list envelope
func NewListResponse(data interface{}) ListResponse {
	return ListResponse{Data: data}
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorInfo{Code: code, Message: message}}
}

// MapError translates a domain error into status code and body. The
// 401/403/404 outcomes stay distinct all the way to the wire.
func MapError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, NewErrorResponse("UNAUTHORIZED", "authentication required")
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, NewErrorResponse("FORBIDDEN", "access to this resource is forbidden")
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, NewErrorResponse("NOT_FOUND", "resource not found")
	case errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict, NewErrorResponse("ALREADY_EXISTS", "resource already exists")
	case errors.Is(err, shared.ErrRunInProgress):
		return http.StatusConflict, NewErrorResponse("RUN_IN_PROGRESS", "another import run holds the lock")
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest, NewErrorResponse("INVALID_INPUT", "invalid input provided")
	case errors.Is(err, shared.ErrConnectivity):
		return http.StatusBadGateway, NewErrorResponse("CONNECTIVITY_ERROR", "external source unreachable")
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Code == "INVALID_INPUT" {
			return http.StatusBadRequest, NewErrorResponse(domainErr.Code, domainErr.Message)
		}
		return http.StatusInternalServerError, NewErrorResponse(domainErr.Code, domainErr.Message)
	}
	return http.StatusInternalServerError, NewErrorResponse("INTERNAL_ERROR", "internal server error")
}
