package content

import (
	"net/http"
	"strconv"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"

	"github.com/gin-gonic/gin"
)

// SubmissionList is scoped by role, see SubmissionService.List
func SubmissionList(c *gin.Context, d *internal.Deps, kind model.Kind) {
	views, err := d.Submissions.List(c.Request.Context(), common.Principal(c), kind, c.Query("type"))
	if err != nil {
		common.Fail(c, err, "list submissions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": views})
}

func SubmissionSubmitted(c *gin.Context, d *internal.Deps, kind model.Kind) {
	views, err := d.Submissions.ListSubmitted(c.Request.Context(), kind, c.Query("type"))
	if err != nil {
		common.Fail(c, err, "list submitted content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": views})
}

func SubmissionDetail(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	view, err := d.Submissions.Detail(c.Request.Context(), common.Principal(c), kind, id)
	if err != nil {
		common.Fail(c, err, "fetch submission")
		return
	}

	c.JSON(http.StatusOK, view)
}

func Discover(c *gin.Context, d *internal.Deps, kind model.Kind) {
	views, err := d.Submissions.Discover(c.Request.Context(), kind, c.Query("type"))
	if err != nil {
		common.Fail(c, err, "discover content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": views})
}

// Approved pages with ?page= and ?limit=, bad values fall back to the
// defaults
func Approved(c *gin.Context, d *internal.Deps, kind model.Kind) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	res, err := d.Submissions.Approved(c.Request.Context(), kind, c.Query("type"), page, limit)
	if err != nil {
		common.Fail(c, err, "list approved content")
		return
	}

	c.JSON(http.StatusOK, res)
}
