package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/auth"
)

// RequireRoles gates the route behind the authorization engine. Routes with
// a user_id path parameter are identity-scoped: the target identity and the
// request method are handed to the decision function so self-reads pass and
// everything else is reserved to admins.
func RequireRoles(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var targetID *uint
		if raw := c.Param("user_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
				return
			}
			target := uint(id)
			targetID = &target
		}

		method := ""
		if c.Request != nil {
			method = c.Request.Method
		}

		if err := auth.Authorize(CallerFrom(c), required, targetID, method); err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}
