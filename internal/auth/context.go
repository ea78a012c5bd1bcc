package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"
)

// UserID returns the authenticated user's id set by one of the auth middlewares.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// UserEmail returns the email claim of the authenticated user, if the token carried one.
func UserEmail(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserEmail))
}

// SetUser stores the authenticated identity on the gin context.
func SetUser(c *gin.Context, userID, email string) {
	c.Set(CtxUserID, userID)
	if email != "" {
		c.Set(CtxUserEmail, email)
	}
}
