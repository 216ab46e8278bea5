// README: Firebase auth middleware. Every /api route runs behind this;
// handlers read the caller's uid via CallerUID.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kentaro1216/okosy/internal/infra"
)

const uidKey = "auth_uid"

func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		verified, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(uidKey, verified.UID)
		c.Next()
	}
}

// CallerUID returns the authenticated uid, or "" outside an authed route.
func CallerUID(c *gin.Context) string {
	return c.GetString(uidKey)
}
