package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/domain/repository"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo is the GORM implementation of repository.UserRepository.
type UserRepo struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewUserRepository creates an operator account repository backed by db.
func NewUserRepository(db *gorm.DB, log logger.Logger) *UserRepo {
	return &UserRepo{
		db:     db,
		logger: log.WithComponent("user_repository"),
	}
}

// Create inserts a new operator account.
func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return errors.ErrServerError("failed to create user").WithCause(err)
	}
	return nil
}

// FindByEmail retrieves an account by email address.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrUserNotFound(email)
	}
	if err != nil {
		return nil, errors.ErrServerError("failed to load user").WithCause(err)
	}
	return &user, nil
}

// FindByID retrieves an account by ID.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrUserNotFound(id)
	}
	if err != nil {
		return nil, errors.ErrServerError("failed to load user").WithCause(err)
	}
	return &user, nil
}
