package user

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRegister signs up a member. The account stays unusable until the
// emailed link is followed.
func UserRegister(c *gin.Context, d *internal.Deps) {
	var data service.SignupInput
	if err := c.ShouldBindJSON(&data); err != nil {
		common.BindFailed(c, err)
		return
	}

	user, err := d.Accounts.SignupMember(c.Request.Context(), data)
	if err != nil {
		common.Fail(c, err, "register member")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"userID": user.ID,
		"detail": "Verification link sent to your email",
	})
}
