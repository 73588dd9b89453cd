package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ridewave/dispatch/internal/application/dto"
	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/pkg/constants"
	"github.com/ridewave/dispatch/pkg/errors"
)

// SessionVerifier validates a bearer token into session claims.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*service.SessionClaims, error)
}

// JWTAuth requires a valid, unrevoked bearer token and stores the operator
// identity on the context.
func JWTAuth(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, errors.ErrInvalidCredentials())
			return
		}

		claims, err := verifier.VerifySession(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(string(constants.ContextKeyUserID), claims.UserID)
		c.Set(string(constants.ContextKeyUserRole), claims.Role)
		c.Set(string(constants.ContextKeySessionClaims), claims)
		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyUserID, claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin operators. Must run after
// JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(string(constants.ContextKeyUserRole))
		if role != string(constants.RoleAdmin) {
			abortWithError(c, errors.ErrForbidden("admin role required"))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortWithError(c *gin.Context, err error) {
	status, body := dto.NewErrorResponse(err)
	c.AbortWithStatusJSON(status, body)
}
