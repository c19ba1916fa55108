package user

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
)

func MemberCreate(c *gin.Context, d *internal.Deps) {
	var data service.MemberInput
	if err := c.ShouldBindJSON(&data); err != nil {
		common.BindFailed(c, err)
		return
	}

	member, err := d.Accounts.CreateMember(c.Request.Context(), common.Principal(c), data)
	if err != nil {
		common.Fail(c, err, "create member")
		return
	}

	c.JSON(http.StatusCreated, member)
}

func MemberList(c *gin.Context, d *internal.Deps) {
	members, err := d.Accounts.ListMembers(c.Request.Context())
	if err != nil {
		common.Fail(c, err, "list members")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": members})
}

func MemberFetch(c *gin.Context, d *internal.Deps) {
	member, err := d.Accounts.Member(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Fail(c, err, "fetch member")
		return
	}

	c.JSON(http.StatusOK, member)
}

func MemberDelete(c *gin.Context, d *internal.Deps) {
	if err := d.Accounts.DeleteMember(c.Request.Context(), common.Principal(c), c.Param("id")); err != nil {
		common.Fail(c, err, "delete member")
		return
	}

	c.Status(http.StatusNoContent)
}
