// Package handlers implements the v1 HTTP endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trackit/internal/core/apperror"
	"trackit/internal/core/id"
	"trackit/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses a path or body identifier. A false return means the
// error response is already registered.
func (h *BaseHandler) ParseID(c *gin.Context, field, value string) (id.ID, bool) {
	parsed, err := id.Parse(value)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid identifier").
			WithDetail("field", field).
			WithDetail("value", value))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseOptionalID parses an identifier that may be empty.
func (h *BaseHandler) ParseOptionalID(c *gin.Context, field, value string) (id.ID, bool) {
	if value == "" {
		return id.Nil(), true
	}
	return h.ParseID(c, field, value)
}

// ParseOptionalDate parses a date parameter accepting RFC 3339 or a
// plain calendar date.
func (h *BaseHandler) ParseOptionalDate(c *gin.Context, field, value string) (*time.Time, bool) {
	return h.parseOptionalDate(c, field, value, false)
}

// ParseOptionalDateEnd parses an inclusive upper range bound. A plain
// calendar date means the whole day, so it resolves to the last instant
// of that day rather than midnight; RFC 3339 values pass unchanged.
func (h *BaseHandler) ParseOptionalDateEnd(c *gin.Context, field, value string) (*time.Time, bool) {
	return h.parseOptionalDate(c, field, value, true)
}

func (h *BaseHandler) parseOptionalDate(c *gin.Context, field, value string, endOfDay bool) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, true
	}
	h.Error(c, apperror.NewValidation("invalid date").
		WithDetail("field", field).
		WithDetail("value", value))
	return nil, false
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, entityID id.ID) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: entityID.String()})
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
