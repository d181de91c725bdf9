package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WithAPIKey enforces the x-api-key header when key is non-empty.
func WithAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		if c.GetHeader("x-api-key") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
