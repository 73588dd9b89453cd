package dto

import (
	"time"

	"github.com/ridewave/dispatch/internal/domain/models"
)

// LoginRequest is the operator sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=1"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      *UserProfile `json:"user"`
}

// UserProfile is the public view of an operator account.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// NewUserProfile maps an account model to its public view.
func NewUserProfile(u *models.User) *UserProfile {
	return &UserProfile{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
	}
}

// NewLoginResponse builds the login payload.
func NewLoginResponse(token string, expiresAt time.Time, u *models.User) *LoginResponse {
	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      NewUserProfile(u),
	}
}

// UnblockRequest lifts a login block early. Admin only.
type UnblockRequest struct {
	Identity string `json:"identity" binding:"required,min=1"`
}
