package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cte-escapes/waiver-backend/internal/auth"
	"github.com/cte-escapes/waiver-backend/pkg/response"
)

const (
	// ContextStaffUser is the key for the authenticated staff username.
	ContextStaffUser = "staff_user"
)

// JWT validates the staff bearer token for the analytics API.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextStaffUser, claims.Username)
		c.Next()
	}
}
