package repository

import (
	"context"

	"github.com/ridewave/dispatch/internal/domain/models"
)

// UserRepository persists operator accounts.
type UserRepository interface {
	// Create inserts a new operator account.
	Create(ctx context.Context, user *models.User) error

	// FindByEmail retrieves an account by email address.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID retrieves an account by ID.
	FindByID(ctx context.Context, id string) (*models.User, error)
}
