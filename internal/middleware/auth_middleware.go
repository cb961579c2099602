package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/auth"
)

// CallerKey is the gin context key the verified caller is stored under.
const CallerKey = "caller"

// JWTAuthMiddleware verifies the Bearer token and stores the resolved caller
// in the request context. Expired and malformed tokens both abort with 401.
func JWTAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		claims, err := auth.ParseToken(jwtSecret, parts[1])
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(CallerKey, &auth.Caller{ID: claims.UserID, Roles: claims.Roles})
		c.Next()
	}
}

// CallerFrom returns the caller set by JWTAuthMiddleware, or nil when the
// request never passed authentication.
func CallerFrom(c *gin.Context) *auth.Caller {
	value, exists := c.Get(CallerKey)
	if !exists {
		return nil
	}
	caller, ok := value.(*auth.Caller)
	if !ok {
		return nil
	}
	return caller
}
