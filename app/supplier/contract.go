package supplier

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ContractSign is a multipart form: email, username, password,
// confirm_password and the contract pdf
func ContractSign(c *gin.Context, d *internal.Deps) {
	req, err := d.Onboarding.SignContract(c.Request.Context(), service.ContractInput{
		Email:           c.PostForm("email"),
		Username:        c.PostForm("username"),
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirm_password"),
		Contract:        common.FormFile(c, "contract"),
	})
	if err != nil {
		common.Fail(c, err, "sign contract")
		return
	}

	c.JSON(http.StatusOK, req)
}

func ContractUpdate(c *gin.Context, d *internal.Deps) {
	req, err := d.Onboarding.UpdateContract(
		c.Request.Context(),
		c.PostForm("email"),
		c.PostForm("username"),
		common.FormFile(c, "contract"),
	)
	if err != nil {
		common.Fail(c, err, "update contract")
		return
	}

	c.JSON(http.StatusOK, req)
}
