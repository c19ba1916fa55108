package user

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"

	"github.com/gin-gonic/gin"
)

func UserVerify(c *gin.Context, d *internal.Deps) {
	err := d.Accounts.Verify(c.Request.Context(), c.Query("user_id"), c.Query("token"))
	if err != nil {
		common.Fail(c, err, "verify user")
		return
	}

	common.Detail(c, http.StatusOK, "Email verified")
}
