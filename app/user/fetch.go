package user

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"

	"github.com/gin-gonic/gin"
)

// UserFetch returns the caller with their role profile
func UserFetch(c *gin.Context, d *internal.Deps) {
	user, err := d.Accounts.Me(c.Request.Context(), common.Principal(c))
	if err != nil {
		common.Fail(c, err, "fetch user")
		return
	}

	c.JSON(http.StatusOK, user)
}
