package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/pkg/constants"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:   "test-secret-at-least-32-bytes-long!",
		TokenTTL:    3600,
		TokenIssuer: "dispatch",
	}
}

func testUser() *models.User {
	return &models.User{
		ID:    "user-1",
		Email: "ops@ridewave.example",
		Role:  constants.RoleDispatcher,
	}
}

func TestJWTManager_IssueAndVerify(t *testing.T) {
	m := NewJWTManager(testAuthConfig())

	token, jti, expiresAt, err := m.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, string(constants.RoleDispatcher), claims.Role)
	assert.Equal(t, jti, claims.JTI)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager(testAuthConfig())
	token, _, _, err := issuer.Issue(testUser())
	require.NoError(t, err)

	other := NewJWTManager(&config.AuthConfig{
		JWTSecret:   "a-completely-different-signing-secret",
		TokenTTL:    3600,
		TokenIssuer: "dispatch",
	})
	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsWrongIssuer(t *testing.T) {
	cfg := testAuthConfig()
	cfg.TokenIssuer = "someone-else"
	issuer := NewJWTManager(cfg)
	token, _, _, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = NewJWTManager(testAuthConfig()).Verify(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	cfg.TokenTTL = -60
	m := NewJWTManager(cfg)

	token, _, _, err := m.Issue(testUser())
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	m := NewJWTManager(testAuthConfig())
	_, err := m.Verify("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.False(t, VerifyPassword(hash, "wrong password"))
	assert.False(t, VerifyPassword("not-a-hash", "anything"))
}
