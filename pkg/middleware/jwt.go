package middleware

import (
	"errors"
	"net/http"
	"strings"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const AuthCookie = "auth_token"

// NewJWTMiddleware authenticates the caller from a Bearer header or the
// auth_token cookie. The user row is re-read so deleted or unverified
// accounts are rejected even while their token is still valid.
func NewJWTMiddleware(db *gorm.DB, issuer *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		tokenStr := bearer(c)
		if tokenStr == "" {
			abort(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		p, err := issuer.Parse(tokenStr)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Authorization token invalid")
			return
		}

		var user model.User
		err = db.
			Select("id", "role", "verified").
			Where("id = ?", p.UserID).
			First(&user).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abort(c, http.StatusUnauthorized, "User not found")
				return
			}

			abort(c, http.StatusInternalServerError, "Internal server error")
			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !user.Verified {
			abort(c, http.StatusForbidden, "Please verify your account before using the service")
			return
		}

		// Role changes take effect without a new login
		p.Role = user.Role

		c.Set("principal", *p)
		c.Set("userID", p.UserID)
		c.Set("role", p.Role)
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}

		return ""
	}

	tok, err := c.Cookie(AuthCookie)
	if err != nil {
		return ""
	}

	return tok
}
