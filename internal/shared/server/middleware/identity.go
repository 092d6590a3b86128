package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"answerpath-backend/internal/shared/config"
	"answerpath-backend/internal/shared/server/respond"
)

const (
	// UserIDHeader carries the caller identity resolved by the upstream gateway.
	UserIDHeader = "X-User-Id"
	// DevUserID is used for requests without identity in dev and local.
	DevUserID = "dev-user"
)

// Identity stores the caller's user ID in context. Authentication happens
// upstream; this service trusts the gateway-provided header. Anonymous
// callers are only accepted where config.IsDevLike(env) holds.
func Identity(env string) gin.HandlerFunc {
	allowAnonymous := config.IsDevLike(env)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			if !allowAnonymous {
				respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "missing identity", nil)
				return
			}
			userID = DevUserID
		}
		c.Set(respond.KeyUserID, userID)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(respond.KeyUserID)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
