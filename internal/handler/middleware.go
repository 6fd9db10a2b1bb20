package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Authentication is owned by an upstream gateway; it forwards the verified
// account id in this header. The API treats the value as an opaque identity
// reference.
const userIDHeader = "X-User-ID"

const userIDKey = "currentUserID"

// Identity extracts the forwarded user id, if any, into the request context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(userIDHeader); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				c.Set(userIDKey, id)
			}
		}
		c.Next()
	}
}

// currentUserID returns the acting user's id, or false when the request is
// anonymous.
func currentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// requireUser aborts anonymous requests with 401 and returns the user id
// otherwise.
func requireUser(c *gin.Context) (int64, bool) {
	id, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return id, ok
}
