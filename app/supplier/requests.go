package supplier

import (
	"net/http"
	"time"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"

	"github.com/gin-gonic/gin"
)

type emailBody struct {
	Email string `json:"email"`
}

type interviewBody struct {
	Email         string    `json:"email"`
	InterviewDate time.Time `json:"interview_date"`
}

type hideBody struct {
	Email  string `json:"email"`
	Hidden bool   `json:"hidden"`
}

// RequestList filters on ?status= and ?hidden=, hidden defaults to false
func RequestList(c *gin.Context, d *internal.Deps) {
	requests, err := d.Onboarding.Requests(c.Request.Context(), c.Query("status"), c.DefaultQuery("hidden", "false"))
	if err != nil {
		common.Fail(c, err, "list supplier requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": requests})
}

// RequestDetail takes ?email= and ?username=
func RequestDetail(c *gin.Context, d *internal.Deps) {
	req, err := d.Onboarding.RequestDetail(c.Request.Context(), c.Query("email"), c.Query("username"))
	if err != nil {
		common.Fail(c, err, "fetch supplier request")
		return
	}

	c.JSON(http.StatusOK, req)
}

func RequestInterview(c *gin.Context, d *internal.Deps) {
	var data interviewBody
	if err := c.ShouldBindJSON(&data); err != nil {
		common.BindFailed(c, err)
		return
	}

	req, err := d.Onboarding.ScheduleInterview(c.Request.Context(), data.Email, data.InterviewDate)
	if err != nil {
		common.Fail(c, err, "schedule interview")
		return
	}

	c.JSON(http.StatusOK, req)
}

func RequestApprove(c *gin.Context, d *internal.Deps) {
	var data emailBody
	if err := c.ShouldBindJSON(&data); err != nil {
		common.BindFailed(c, err)
		return
	}

	req, err := d.Onboarding.Approve(c.Request.Context(), data.Email)
	if err != nil {
		common.Fail(c, err, "approve supplier request")
		return
	}

	c.JSON(http.StatusOK, req)
}

func RequestDecline(c *gin.Context, d *internal.Deps) {
	var data emailBody
	if err := c.ShouldBindJSON(&data); err != nil {
		common.BindFailed(c, err)
		return
	}

	req, err := d.Onboarding.Decline(c.Request.Context(), data.Email)
	if err != nil {
		common.Fail(c, err, "decline supplier request")
		return
	}

	c.JSON(http.StatusOK, req)
}

func RequestHide(c *gin.Context, d *internal.Deps) {
	var data hideBody
	if err := c.ShouldBindJSON(&data); err != nil {
		common.BindFailed(c, err)
		return
	}

	if err := d.Onboarding.Hide(c.Request.Context(), data.Email, data.Hidden); err != nil {
		common.Fail(c, err, "hide supplier request")
		return
	}

	c.Status(http.StatusNoContent)
}
