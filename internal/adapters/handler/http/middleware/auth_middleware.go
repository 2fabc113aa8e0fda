package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "Bearer"
)

// BridgeAuthMiddleware guards the bridge with the static token from the
// engine config. The engine holds no user accounts; this only keeps
// other processes on the same host out of the intent routes.
func BridgeAuthMiddleware(token string) gin.HandlerFunc {
	expected := []byte(token)

	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || fields[0] != authorizationType {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(fields[1]), expected) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid bridge token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
