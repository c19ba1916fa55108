// Package plan serves subscription plans and the single pricing row
package plan

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ref names a plan. Both parts must match for the plan to be found.
type ref struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ByTimeline lists the plan details offered for ?timeline=
func ByTimeline(c *gin.Context, d *internal.Deps) {
	details, err := d.Plans.ByTimeline(c.Request.Context(), c.Query("timeline"))
	if err != nil {
		common.Fail(c, err, "list plans")
		return
	}

	c.JSON(http.StatusOK, details)
}

func List(c *gin.Context, d *internal.Deps, typ model.PlanType) {
	plans, err := d.Plans.List(c.Request.Context(), typ)
	if err != nil {
		common.Fail(c, err, "list plans")
		return
	}

	c.JSON(http.StatusOK, plans)
}

func Create(c *gin.Context, d *internal.Deps, typ model.PlanType) {
	var in service.PlanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BindFailed(c, err)
		return
	}

	p, err := d.Plans.Create(c.Request.Context(), typ, in)
	if err != nil {
		common.Fail(c, err, "create plan")
		return
	}

	c.JSON(http.StatusCreated, p)
}

func Update(c *gin.Context, d *internal.Deps, typ model.PlanType) {
	var in service.PlanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BindFailed(c, err)
		return
	}

	p, err := d.Plans.Update(c.Request.Context(), typ, in)
	if err != nil {
		common.Fail(c, err, "update plan")
		return
	}

	c.JSON(http.StatusOK, p)
}

func Toggle(c *gin.Context, d *internal.Deps, typ model.PlanType) {
	var in ref
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BindFailed(c, err)
		return
	}

	p, err := d.Plans.ToggleStatus(c.Request.Context(), typ, in.ID, in.Name)
	if err != nil {
		common.Fail(c, err, "toggle plan")
		return
	}

	c.JSON(http.StatusOK, p)
}

func Delete(c *gin.Context, d *internal.Deps, typ model.PlanType) {
	var in ref
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BindFailed(c, err)
		return
	}

	if err := d.Plans.Delete(c.Request.Context(), typ, in.ID, in.Name); err != nil {
		common.Fail(c, err, "delete plan")
		return
	}

	c.Status(http.StatusNoContent)
}

func Pricing(c *gin.Context, d *internal.Deps) {
	p, err := d.Plans.Pricing(c.Request.Context())
	if err != nil {
		common.Fail(c, err, "fetch pricing")
		return
	}

	c.JSON(http.StatusOK, p)
}

func PricingUpdate(c *gin.Context, d *internal.Deps) {
	var in service.PricingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BindFailed(c, err)
		return
	}

	p, err := d.Plans.UpdatePricing(c.Request.Context(), in)
	if err != nil {
		common.Fail(c, err, "update pricing")
		return
	}

	c.JSON(http.StatusOK, p)
}
