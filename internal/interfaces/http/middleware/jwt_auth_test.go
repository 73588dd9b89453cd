package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/pkg/constants"
	"github.com/ridewave/dispatch/pkg/errors"
)

type fakeVerifier struct {
	claims *service.SessionClaims
	err    error
}

func (f *fakeVerifier) VerifySession(_ context.Context, _ string) (*service.SessionClaims, error) {
	return f.claims, f.err
}

func newAuthEngine(v SessionVerifier, adminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	chain := []gin.HandlerFunc{JWTAuth(v)}
	if adminOnly {
		chain = append(chain, RequireAdmin())
	}
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(string(constants.ContextKeyUserID))})
	})
	engine.GET("/protected", chain...)
	return engine
}

func doGet(engine *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	engine.ServeHTTP(w, req)
	return w
}

func dispatcherClaims() *service.SessionClaims {
	return &service.SessionClaims{
		UserID:    "user-1",
		Role:      string(constants.RoleDispatcher),
		JTI:       "jti-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestJWTAuth_ValidToken(t *testing.T) {
	engine := newAuthEngine(&fakeVerifier{claims: dispatcherClaims()}, false)

	resp := doGet(engine, "Bearer sometoken")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "user-1")
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	engine := newAuthEngine(&fakeVerifier{claims: dispatcherClaims()}, false)

	resp := doGet(engine, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	engine := newAuthEngine(&fakeVerifier{claims: dispatcherClaims()}, false)

	resp := doGet(engine, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestJWTAuth_RejectedToken(t *testing.T) {
	engine := newAuthEngine(&fakeVerifier{err: errors.ErrInvalidCredentials()}, false)

	resp := doGet(engine, "Bearer sometoken")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequireAdmin_RejectsDispatcher(t *testing.T) {
	engine := newAuthEngine(&fakeVerifier{claims: dispatcherClaims()}, true)

	resp := doGet(engine, "Bearer sometoken")
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	claims := dispatcherClaims()
	claims.Role = string(constants.RoleAdmin)
	engine := newAuthEngine(&fakeVerifier{claims: claims}, true)

	resp := doGet(engine, "Bearer sometoken")
	assert.Equal(t, http.StatusOK, resp.Code)
}
