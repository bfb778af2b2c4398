package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cte-escapes/waiver-backend/internal/auth"
)

func jwtRouter(svc *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/staff", JWT(svc), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextStaffUser))
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	r := jwtRouter(svc)

	token, err := svc.Generate("frontdesk")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "frontdesk", w.Body.String())
}

func TestJWTMiddlewareRejects(t *testing.T) {
	r := jwtRouter(auth.NewJWTService("test-secret", 1))

	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing authorization")

	req = httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired token")
}
