package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/b2bnest/b2bnest-api/internal/auth"
)

// DevUser sets a user id in context without enforcing auth.
// - If X-User-Id is missing, it falls back to "demo-user".
// - Use this ONLY for development/testing.
func DevUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			uid = "demo-user"
		}

		auth.SetUser(c, uid, strings.TrimSpace(c.GetHeader("X-User-Email")))

		c.Next()
	}
}
