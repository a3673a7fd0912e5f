package middleware

import (
	"net/http"
	"strings"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/services"
	"github.com/gin-gonic/gin"
)

// ContextUserIDKey is where the authenticated user id lives on the gin
// context. Handlers read it through GetUserID.
const ContextUserIDKey = "userID"

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   msg,
		"code":    "auth",
	})
}

// AuthMiddleware validates the bearer token and stamps the user id onto the
// request context. Every failure mode answers with the same envelope shape
// the handlers use.
func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "authorization header required")
			return
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			abortUnauthorized(c, "authorization header must be a bearer token")
			return
		}

		userID, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// GetUserID reads the user id set by AuthMiddleware; ok is false when the
// request never went through it.
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
