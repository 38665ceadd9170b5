package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserUID   = "user_uid"
	CtxUserName  = "user_name"
	CtxUserEmail = "user_email"
)

// UserUID extracts the authenticated user's UID from the Gin context.
// This is set by Middleware.
func UserUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserUID))
}

// UserName extracts the authenticated user's display name, falling back to
// the UID when the token carries no name claim.
func UserName(c *gin.Context) string {
	if name := strings.TrimSpace(c.GetString(CtxUserName)); name != "" {
		return name
	}
	return UserUID(c)
}
