package models

import (
	"time"

	"github.com/ridewave/dispatch/pkg/constants"
)

// User is an operator account that can sign in to the dispatch console.
type User struct {
	ID           string             `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string             `gorm:"uniqueIndex;type:varchar(255);not null" json:"email"`
	PasswordHash string             `gorm:"type:varchar(255);not null" json:"-"`
	Name         string             `gorm:"type:varchar(120)" json:"name"`
	Role         constants.UserRole `gorm:"type:varchar(20);not null;default:'dispatcher'" json:"role"`
	CreatedAt    time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsAdmin reports whether the account may manage blocks and other operators.
func (u *User) IsAdmin() bool {
	return u.Role == constants.RoleAdmin
}
