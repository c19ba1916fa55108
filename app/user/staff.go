package user

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
)

func StaffCreate(c *gin.Context, d *internal.Deps) {
	var data service.StaffInput
	if err := c.ShouldBindJSON(&data); err != nil {
		common.BindFailed(c, err)
		return
	}

	user, err := d.Accounts.CreateStaff(c.Request.Context(), common.Principal(c), data)
	if err != nil {
		common.Fail(c, err, "create staff")
		return
	}

	c.JSON(http.StatusCreated, user)
}

func StaffList(c *gin.Context, d *internal.Deps) {
	staff, err := d.Accounts.ListStaff(c.Request.Context())
	if err != nil {
		common.Fail(c, err, "list staff")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": staff})
}

func StaffFetch(c *gin.Context, d *internal.Deps) {
	staff, err := d.Accounts.Staff(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Fail(c, err, "fetch staff")
		return
	}

	c.JSON(http.StatusOK, staff)
}

func StaffDelete(c *gin.Context, d *internal.Deps) {
	if err := d.Accounts.DeleteStaff(c.Request.Context(), common.Principal(c), c.Param("id")); err != nil {
		common.Fail(c, err, "delete staff")
		return
	}

	c.Status(http.StatusNoContent)
}
