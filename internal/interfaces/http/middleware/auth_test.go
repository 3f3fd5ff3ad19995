package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"cccd-api.backend/pkg/jwt"
)

func newAuthRouter(svc *jwt.JWTService) *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthMiddleware(svc), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		email, _ := GetUserEmail(c)
		role, _ := GetUserRole(c)
		c.JSON(http.StatusOK, gin.H{"userId": userID, "email": email, "role": role})
	})
	r.GET("/admin", AuthMiddleware(svc), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", time.Hour, time.Hour)
	r := newAuthRouter(svc)

	pair, err := svc.GenerateTokenPair(7, "u@example.com", "user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+pair.AccessToken)
	w := serveWith(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"userId":7`)
	require.Contains(t, w.Body.String(), `"email":"u@example.com"`)
}

func TestAuthMiddleware_MissingAndMalformedHeader(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", time.Hour, time.Hour)
	r := newAuthRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := serveWith(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthorizationHeader, "Token abc")
	w = serveWith(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid authorization format")
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expired := jwt.NewJWTService("test-secret", -time.Minute, -time.Minute)
	r := newAuthRouter(jwt.NewJWTService("test-secret", time.Hour, time.Hour))

	pair, err := expired.GenerateTokenPair(7, "u@example.com", "user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+pair.AccessToken)
	w := serveWith(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Token has expired")
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	other := jwt.NewJWTService("other-secret", time.Hour, time.Hour)
	r := newAuthRouter(jwt.NewJWTService("test-secret", time.Hour, time.Hour))

	pair, err := other.GenerateTokenPair(7, "u@example.com", "user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+pair.AccessToken)
	w := serveWith(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid token")
}

func TestRequireAdmin(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", time.Hour, time.Hour)
	r := newAuthRouter(svc)

	userPair, err := svc.GenerateTokenPair(7, "u@example.com", "user")
	require.NoError(t, err)
	adminPair, err := svc.GenerateTokenPair(1, "admin@example.com", "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+userPair.AccessToken)
	w := serveWith(r, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+adminPair.AccessToken)
	w = serveWith(r, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOwnerScope(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := OwnerScope(c)
	require.False(t, ok)

	c.Set(UserIDKey, int64(7))
	c.Set(UserRoleKey, "user")
	scope, ok := OwnerScope(c)
	require.True(t, ok)
	require.NotNil(t, scope)
	require.Equal(t, int64(7), *scope)

	// Admins see every key: no owner filter.
	c.Set(UserRoleKey, "admin")
	scope, ok = OwnerScope(c)
	require.True(t, ok)
	require.Nil(t, scope)
}
