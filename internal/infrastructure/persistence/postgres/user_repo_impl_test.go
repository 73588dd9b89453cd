package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/pkg/constants"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

func TestUserRepo_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	user := &models.User{
		ID:           testUUID(),
		Email:        "ops@ridewave.example",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhash",
		Name:         "Ops Admin",
		Role:         constants.RoleAdmin,
	}
	require.NoError(t, repo.Create(ctx, user))

	byEmail, err := repo.FindByEmail(ctx, "ops@ridewave.example")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.True(t, byEmail.IsAdmin())

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
}

func TestUserRepo_NotFound(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	_, err := repo.FindByEmail(ctx, "ghost@ridewave.example")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = repo.FindByID(ctx, testUUID())
	assert.True(t, errors.IsNotFoundError(err))
}
