package handlers

import (
	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/billing/internal/app/api/middleware"
	"github.com/fatflowers/billing/internal/app/service/plan"
)

// @Summary      List plans
// @Tags         Plans
// @Produce      json
// @Success      200  {object}  handlers.RespPlans
// @Router       /api/v1/subscriptions/plans [get]
func ApiListPlans(svc *plan.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := svc.List(c.Request.Context())
		if err != nil {
			fail(c, "plan_list_error", err)
			return
		}
		ok(c, plans)
	}
}

// @Summary      Get plan
// @Tags         Plans
// @Produce      json
// @Param        planId path string true "gateway plan id"
// @Success      200  {object}  handlers.RespPlan
// @Router       /api/v1/subscriptions/plans/{planId} [get]
func ApiGetPlan(svc *plan.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("planId"))
		if err != nil {
			fail(c, "plan_get_error", err)
			return
		}
		ok(c, p)
	}
}

// @Summary      Create plan (Admin)
// @Description  Creates the plan on the gateway and stores it. notes.tokens sets the per-cycle allocation.
// @Tags         Plans
// @Accept       json
// @Produce      json
// @Param        X-User-Role header string true "must be admin"
// @Param        request body plan.CreateRequest true "plan"
// @Success      200  {object}  handlers.RespPlan
// @Router       /api/v1/subscriptions/plan [post]
func ApiCreatePlan(svc *plan.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req plan.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		p, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			fail(c, "plan_create_error", err)
			return
		}
		ok(c, p)
	}
}

func RegisterPlanRoutes(r gin.IRouter, svc *plan.Service) {
	g := r.Group("/subscriptions")
	g.GET("/plans", ApiListPlans(svc))
	g.GET("/plans/:planId", ApiGetPlan(svc))
	g.POST("/plan", mw.RequireAdmin(), ApiCreatePlan(svc))
}
