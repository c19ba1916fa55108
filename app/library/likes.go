package library

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"

	"github.com/gin-gonic/gin"
)

func Like(c *gin.Context, d *internal.Deps, kind model.Kind) {
	var b fileBody
	if err := c.ShouldBindJSON(&b); err != nil {
		common.BindFailed(c, err)
		return
	}

	if err := d.Library.Like(c.Request.Context(), common.Principal(c), kind, b.ref(kind)); err != nil {
		common.Fail(c, err, "like file")
		return
	}

	common.Detail(c, http.StatusCreated, "liked")
}

func Unlike(c *gin.Context, d *internal.Deps, kind model.Kind) {
	var b fileBody
	if err := c.ShouldBindJSON(&b); err != nil {
		common.BindFailed(c, err)
		return
	}

	if err := d.Library.Unlike(c.Request.Context(), common.Principal(c), kind, b.ref(kind)); err != nil {
		common.Fail(c, err, "unlike file")
		return
	}

	c.Status(http.StatusNoContent)
}

func Likes(c *gin.Context, d *internal.Deps, kind model.Kind) {
	likes, err := d.Library.Likes(c.Request.Context(), common.Principal(c), kind, c.Query("type"))
	if err != nil {
		common.Fail(c, err, "list likes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": likes})
}
