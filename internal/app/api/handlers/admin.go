package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fatflowers/billing/internal/app/service/order"
	"github.com/fatflowers/billing/internal/app/service/payment"
	"github.com/fatflowers/billing/internal/app/service/statistics"
)

// @Summary      Get Statistics (Admin)
// @Description  Subscription counts by status, daily new subscriptions and daily token flow.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        X-User-Role header string true "must be admin"
// @Param        request body statistics.StatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespStatistic
// @Router       /api/v1/admin/statistics [post]
func ApiGetStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.StatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svc.GetStatistic(c.Request.Context(), &req)
		if err != nil {
			fail(c, "statistics_error", err)
			return
		}
		ok(c, res)
	}
}

// @Summary      List Orders (Admin)
// @Tags         Admin
// @Produce      json
// @Param        X-User-Role header string true "must be admin"
// @Success      200  {object}  handlers.RespOrders
// @Router       /api/v1/admin/orders [get]
func ApiListOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListAll(c.Request.Context())
		if err != nil {
			fail(c, "order_list_error", err)
			return
		}
		ok(c, list)
	}
}

// @Summary      Enable Remaining Payment (Admin)
// @Tags         Admin
// @Produce      json
// @Param        X-User-Role header string true "must be admin"
// @Param        orderId     path   string true "order id"
// @Success      200  {object}  handlers.RespOrder
// @Router       /api/v1/admin/orders/{orderId}/enable-remaining-payment [post]
func ApiEnableRemainingPayment(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.EnableRemainingPayment(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			fail(c, "order_enable_remaining_error", err)
			return
		}
		ok(c, o)
	}
}

// @Summary      Send Remaining Payment Notification (Admin)
// @Description  Publishes an in-app notification asking the buyer to pay the remainder.
// @Tags         Admin
// @Produce      json
// @Param        X-User-Role header string true "must be admin"
// @Param        orderId     path   string true "order id"
// @Success      200  {object}  handlers.RespNotification
// @Router       /api/v1/admin/orders/{orderId}/send-remaining-payment-notification [post]
func ApiSendRemainingPaymentNotification(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.SendRemainingPaymentNotification(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			fail(c, "order_notify_remaining_error", err)
			return
		}
		ok(c, res)
	}
}

// @Summary      Capture Payment (Admin)
// @Description  Captures an authorized payment for its full amount.
// @Tags         Admin
// @Produce      json
// @Param        X-User-Role header string true "must be admin"
// @Param        paymentId   path   string true "gateway payment id"
// @Success      200  {object}  handlers.RespPayment
// @Router       /api/v1/admin/payments/{paymentId}/capture [post]
func ApiCapturePayment(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Capture(c.Request.Context(), c.Param("paymentId"))
		if err != nil {
			fail(c, "payment_capture_error", err)
			return
		}
		ok(c, p)
	}
}

// @Summary      Refresh Payment (Admin)
// @Description  Re-reads a payment from the gateway and stores it.
// @Tags         Admin
// @Produce      json
// @Param        X-User-Role header string true "must be admin"
// @Param        paymentId   path   string true "gateway payment id"
// @Success      200  {object}  handlers.RespPayment
// @Router       /api/v1/admin/payments/{paymentId}/refresh [post]
func ApiRefreshPayment(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Refresh(c.Request.Context(), c.Param("paymentId"))
		if err != nil {
			fail(c, "payment_refresh_error", err)
			return
		}
		ok(c, p)
	}
}

// RegisterAdminRoutes expects r to be behind RequireAdmin.
func RegisterAdminRoutes(r gin.IRouter, stats *statistics.Service, orders *order.Service, payments *payment.Service) {
	r.POST("/statistics", ApiGetStatistic(stats))
	r.GET("/orders", ApiListOrders(orders))
	r.POST("/orders/:orderId/enable-remaining-payment", ApiEnableRemainingPayment(orders))
	r.POST("/orders/:orderId/send-remaining-payment-notification", ApiSendRemainingPaymentNotification(orders))
	r.POST("/payments/:paymentId/capture", ApiCapturePayment(payments))
	r.POST("/payments/:paymentId/refresh", ApiRefreshPayment(payments))
}
