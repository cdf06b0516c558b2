package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	actingUserHeader = "X-User-ID"
	userIDContextKey = "userID"
)

// ActingUserMiddleware extracts the acting user from the X-User-ID header.
// Authentication happens at the gateway in front of this service; requests
// arriving without the header are rejected.
func ActingUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(actingUserHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing " + actingUserHeader + " header"})
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// GetUserIDFromContext retrieves the acting user ID set by ActingUserMiddleware.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDContextKey)
	return userID, userID != ""
}
