package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"linkloop/tools/security"
)

// CtxUserID is the gin context key carrying the authenticated user id.
const CtxUserID = "userID"

// Auth resolves the session token and stores the user id on the context.
// Browsers cannot set headers on a websocket handshake, so the token is also
// accepted as a query parameter.
func Auth(opts security.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		userID, err := security.Verify(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxUserID, userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
