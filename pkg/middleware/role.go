package middleware

import (
	"net/http"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/pkg/security"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after the JWT middleware
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("principal")
		if !ok {
			abort(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		if !v.(security.Principal).Is(roles...) {
			abort(c, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}

		c.Next()
	}
}
