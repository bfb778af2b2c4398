package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cte-escapes/waiver-backend/pkg/response"
)

// RequireOrigin restricts the waiver endpoints to an origin allow-list and
// sets CORS headers on every response, including errors; the client must be
// able to read a failure. Requests from any other origin are rejected before
// the handler runs. An empty allow-list disables the check (local tooling).
func RequireOrigin(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o != "" {
			origins[o] = true
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if len(origins) > 0 && !origins[origin] {
			response.Unauthorized(c, "forbidden origin")
			c.Abort()
			return
		}
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
