// Package review holds the staff and admin side of the submission
// workflow
package review

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"

	"github.com/gin-gonic/gin"
)

type reviseBody struct {
	Message string `json:"message"`
}

func ids(c *gin.Context) (uint, uint, bool) {
	subID, ok := common.ParamID(c, "id")
	if !ok {
		return 0, 0, false
	}

	fileID, ok := common.ParamID(c, "fileID")
	if !ok {
		return 0, 0, false
	}

	return subID, fileID, true
}

// FileRevise sends a single file back to the supplier with a message
func FileRevise(c *gin.Context, d *internal.Deps, kind model.Kind) {
	subID, fileID, ok := ids(c)
	if !ok {
		return
	}

	var body reviseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		common.BindFailed(c, err)
		return
	}

	af, err := d.Review.ReviseFile(c.Request.Context(), common.Principal(c), kind, subID, fileID, body.Message)
	if err != nil {
		common.Fail(c, err, "request revision")
		return
	}

	c.JSON(http.StatusOK, af)
}

func FileApprove(c *gin.Context, d *internal.Deps, kind model.Kind) {
	subID, fileID, ok := ids(c)
	if !ok {
		return
	}

	af, err := d.Review.ApproveFile(c.Request.Context(), common.Principal(c), kind, subID, fileID)
	if err != nil {
		common.Fail(c, err, "approve file")
		return
	}

	c.JSON(http.StatusOK, af)
}

func FileReject(c *gin.Context, d *internal.Deps, kind model.Kind) {
	subID, fileID, ok := ids(c)
	if !ok {
		return
	}

	af, err := d.Review.RejectFile(c.Request.Context(), common.Principal(c), kind, subID, fileID)
	if err != nil {
		common.Fail(c, err, "reject file")
		return
	}

	c.JSON(http.StatusOK, af)
}

// Submit hands a fully reviewed submission to the admins
func Submit(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	sub, err := d.Review.SubmitForReview(c.Request.Context(), common.Principal(c), kind, id)
	if err != nil {
		common.Fail(c, err, "submit for review")
		return
	}

	c.JSON(http.StatusOK, sub)
}

func Approve(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	sub, err := d.Review.Approve(c.Request.Context(), common.Principal(c), kind, id)
	if err != nil {
		common.Fail(c, err, "approve submission")
		return
	}

	c.JSON(http.StatusOK, sub)
}

func Reject(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	sub, err := d.Review.Reject(c.Request.Context(), common.Principal(c), kind, id)
	if err != nil {
		common.Fail(c, err, "reject submission")
		return
	}

	c.JSON(http.StatusOK, sub)
}
