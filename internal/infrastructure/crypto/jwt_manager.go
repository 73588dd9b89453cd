// Package crypto implements session token signing and password hashing.
package crypto

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/pkg/errors"
)

var _ service.TokenManager = (*JWTManager)(nil)

// sessionClaims is the JWT claim set of an operator session.
type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTManager issues and verifies HS256-signed session tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewJWTManager creates a token manager from the auth configuration.
func NewJWTManager(cfg *config.AuthConfig) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    time.Duration(cfg.TokenTTL) * time.Second,
		issuer: cfg.TokenIssuer,
	}
}

// Issue creates a signed session token for the given account.
func (m *JWTManager) Issue(user *models.User) (string, string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)
	jti := uuid.NewString()

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: string(user.Role),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, jti, expiresAt, nil
}

// Verify parses and validates a token, returning its claims.
func (m *JWTManager) Verify(token string) (*service.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.ErrInvalidCredentials().WithCause(err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.ErrInvalidCredentials()
	}

	return &service.SessionClaims{
		UserID:    claims.Subject,
		Role:      claims.Role,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
