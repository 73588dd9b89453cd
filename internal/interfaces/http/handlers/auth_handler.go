package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridewave/dispatch/internal/application/dto"
	appservice "github.com/ridewave/dispatch/internal/application/service"
	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/internal/interfaces/http/middleware"
	"github.com/ridewave/dispatch/pkg/constants"
	"github.com/ridewave/dispatch/pkg/errors"
)

// AuthHandler serves the authentication and block administration endpoints.
type AuthHandler struct {
	auth *appservice.AuthAppService
}

// NewAuthHandler creates the authentication handler.
func NewAuthHandler(auth *appservice.AuthAppService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), middleware.IdentityFromContext(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, resp)
}

// Logout handles POST /api/v1/auth/logout. Requires authentication.
func (h *AuthHandler) Logout(c *gin.Context) {
	v, ok := c.Get(string(constants.ContextKeySessionClaims))
	if !ok {
		respondError(c, errors.ErrInvalidCredentials())
		return
	}
	claims, ok := v.(*service.SessionClaims)
	if !ok {
		respondError(c, errors.ErrInvalidCredentials())
		return
	}

	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Unblock handles POST /api/v1/admin/unblock. Requires the admin role.
func (h *AuthHandler) Unblock(c *gin.Context) {
	var req dto.UnblockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.auth.Unblock(c.Request.Context(), req.Identity); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"status": "unblocked", "identity": req.Identity})
}
