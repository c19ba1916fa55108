// Package middleware contains the custom gin middleware used by the router
package middleware

import (
	"soulfamily/sounds-api/pkg/util"

	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-ID"

// NewRequestIDMiddleware sets a random requestID on every request and echoes
// it back in the X-Request-ID response header
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := util.RandStr(12)

		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func abort(c *gin.Context, code int, detail string) {
	c.AbortWithStatusJSON(code, gin.H{
		"detail":    detail,
		"requestID": c.GetString("requestID"),
	})
}
