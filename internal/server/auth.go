package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireToken guards analysis routes with a single shared token, accepted
// as either an X-API-Key header or a bearer Authorization header. Intended
// for development deployments and proofs of concept.
func RequireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := extractToken(c.Request)
		if presented == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(presented)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func extractToken(r *http.Request) string {
	if value := strings.TrimSpace(r.Header.Get("X-API-Key")); value != "" {
		return value
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
