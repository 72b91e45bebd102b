package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/billing/internal/app/api/middleware"
	"github.com/fatflowers/billing/internal/app/service/subscription"
	"github.com/fatflowers/billing/pkg/types"
)

// @Summary      List subscriptions
// @Description  All stored subscriptions of the caller.
// @Tags         Subscriptions
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Success      200  {object}  handlers.RespSubscriptions
// @Router       /api/v1/subscriptions/all [get]
func ApiListSubscriptions(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		subs, err := svc.List(c.Request.Context(), mw.UserID(c))
		if err != nil {
			fail(c, "subscription_list_error", err)
			return
		}
		ok(c, subs)
	}
}

// @Summary      Checkout
// @Description  Creates a gateway subscription for a stored plan and records it.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Param        request body subscription.CheckoutRequest true "checkout"
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/subscriptions/checkout [post]
func ApiCheckout(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscription.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sub, err := svc.Checkout(c.Request.Context(), mw.UserID(c), req)
		if err != nil {
			fail(c, "subscription_checkout_error", err)
			return
		}
		ok(c, sub)
	}
}

// @Summary      Fetch subscription
// @Description  Refreshes a subscription from the gateway and stores it under the caller.
// @Tags         Subscriptions
// @Produce      json
// @Param        X-User-ID       header string true "caller id"
// @Param        subscriptionId  path   string true "gateway subscription id"
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/subscriptions/fetch/{subscriptionId} [get]
func ApiFetchSubscription(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svc.Sync(c.Request.Context(), mw.UserID(c), c.Param("subscriptionId"), types.SubscriptionChangeSourceSync)
		if err != nil {
			fail(c, "subscription_fetch_error", err)
			return
		}
		ok(c, sub)
	}
}

// @Summary      Cancel subscription
// @Tags         Subscriptions
// @Produce      json
// @Param        X-User-ID            header string true  "caller id"
// @Param        subscriptionId       path   string true  "gateway subscription id"
// @Param        cancel_at_cycle_end  query  bool   false "defaults to true"
// @Success      200  {object}  handlers.RespStatusChange
// @Router       /api/v1/subscriptions/cancel/{subscriptionId} [post]
func ApiCancelSubscription(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		atCycleEnd := true
		if v := c.Query("cancel_at_cycle_end"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				badRequest(c, "invalid cancel_at_cycle_end")
				return
			}
			atCycleEnd = b
		}
		res, err := svc.Cancel(c.Request.Context(), mw.UserID(c), c.Param("subscriptionId"), atCycleEnd)
		if err != nil {
			fail(c, "subscription_cancel_error", err)
			return
		}
		ok(c, res)
	}
}

// @Summary      Update subscription
// @Description  Edits the subscription on the gateway, then re-syncs the stored copy.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Param        request body subscription.UpdateRequest true "changes"
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/subscriptions/update [post]
func ApiUpdateSubscription(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscription.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sub, err := svc.Update(c.Request.Context(), mw.UserID(c), req)
		if err != nil {
			fail(c, "subscription_update_error", err)
			return
		}
		ok(c, sub)
	}
}

// @Summary      Pause subscription
// @Tags         Subscriptions
// @Produce      json
// @Param        X-User-ID       header string true "caller id"
// @Param        subscriptionId  path   string true "gateway subscription id"
// @Success      200  {object}  handlers.RespStatusChange
// @Router       /api/v1/subscriptions/pause/{subscriptionId} [post]
func ApiPauseSubscription(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Pause(c.Request.Context(), mw.UserID(c), c.Param("subscriptionId"))
		if err != nil {
			fail(c, "subscription_pause_error", err)
			return
		}
		ok(c, res)
	}
}

// @Summary      Resume subscription
// @Tags         Subscriptions
// @Produce      json
// @Param        X-User-ID       header string true "caller id"
// @Param        subscriptionId  path   string true "gateway subscription id"
// @Success      200  {object}  handlers.RespStatusChange
// @Router       /api/v1/subscriptions/resume/{subscriptionId} [post]
func ApiResumeSubscription(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Resume(c.Request.Context(), mw.UserID(c), c.Param("subscriptionId"))
		if err != nil {
			fail(c, "subscription_resume_error", err)
			return
		}
		ok(c, res)
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, svc *subscription.Service) {
	g := r.Group("/subscriptions")
	g.GET("/all", ApiListSubscriptions(svc))
	g.POST("/checkout", ApiCheckout(svc))
	g.GET("/fetch/:subscriptionId", ApiFetchSubscription(svc))
	g.POST("/cancel/:subscriptionId", ApiCancelSubscription(svc))
	g.POST("/update", ApiUpdateSubscription(svc))
	g.POST("/pause/:subscriptionId", ApiPauseSubscription(svc))
	g.POST("/resume/:subscriptionId", ApiResumeSubscription(svc))
}
