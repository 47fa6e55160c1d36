package handlers

import (
	"github.com/gin-gonic/gin"

	"trackit/internal/core/appctx"
	"trackit/internal/domain/auth"
	"trackit/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login and account management.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Login authenticates and returns an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Register creates a user account inside the caller's tenant (admin only).
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Email, req.DisplayName, req.Password, appctx.Role(req.Role))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, user.ID)
}

// Me returns the authenticated identity.
func (h *AuthHandler) Me(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	h.OK(c, gin.H{
		"userId":      user.UserID,
		"displayName": user.DisplayName,
		"role":        user.Role,
	})
}
