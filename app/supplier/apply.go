package supplier

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
)

func SupplierApply(c *gin.Context, d *internal.Deps) {
	var data service.ApplyInput
	if err := c.ShouldBindJSON(&data); err != nil {
		common.BindFailed(c, err)
		return
	}

	req, err := d.Onboarding.Apply(c.Request.Context(), data)
	if err != nil {
		common.Fail(c, err, "create supplier request")
		return
	}

	c.JSON(http.StatusCreated, req)
}
