// Package middleware contains the Gin middleware chain of the HTTP API.
package middleware

import (
	"context"
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ridewave/dispatch/pkg/constants"
)

// ClientIdentity derives the client identity the login guard keys its state
// on and stores it on the request context. The first X-Forwarded-For entry
// wins (the address the outermost trusted proxy recorded), then X-Real-IP,
// then the socket peer address. An empty result means the identity is
// unknown and the guard skips enforcement for the request.
//
// The headers are only trustworthy behind a proxy that overwrites them;
// deployments exposed directly should strip them at the edge.
func ClientIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := DeriveIdentity(c)
		c.Set(string(constants.ContextKeyClientIdentity), identity)
		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyClientIdentity, identity)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// DeriveIdentity extracts the client identity from request headers and the
// peer address.
func DeriveIdentity(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(c.GetHeader("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(c.Request.RemoteAddr)
	}
	return host
}

// IdentityFromContext returns the identity stored by ClientIdentity, or "".
func IdentityFromContext(c *gin.Context) string {
	return c.GetString(string(constants.ContextKeyClientIdentity))
}
