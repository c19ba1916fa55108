package user

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLogin issues a token and also sets it as an http-only cookie for
// browser clients
func UserLogin(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		common.BindFailed(c, err)
		return
	}

	res, err := d.Accounts.Login(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		common.Fail(c, err, "log in user")
		return
	}

	maxAge := int(d.Issuer.TTL().Seconds())

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, res.Token, maxAge, "/", "", d.SecureCookies, true)
	c.SetCookie("logged_in", "1", maxAge, "/", "", d.SecureCookies, false)
	c.JSON(http.StatusOK, res)
}

func UserLogout(c *gin.Context, d *internal.Deps) {
	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", d.SecureCookies, true)
	c.SetCookie("logged_in", "", -1, "/", "", d.SecureCookies, false)
	c.Status(http.StatusNoContent)
}
