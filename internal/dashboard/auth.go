package dashboard

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware enforces a bearer token against every request when token
// is non-empty, using a constant-time comparison the way the teacher's
// auth.go compares API keys. An empty token means dev mode: every request
// is let through (the caller is expected to have already logged the
// "[SECURITY WARNING]"-style notice).
func AuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		const prefix = "Bearer "
		got := c.GetHeader("Authorization")
		if !strings.HasPrefix(got, prefix) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		supplied := got[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
