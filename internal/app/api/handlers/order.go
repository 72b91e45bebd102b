package handlers

import (
	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/billing/internal/app/api/middleware"
	"github.com/fatflowers/billing/internal/app/service/order"
)

// scope is the owner filter for order reads: admins see every order.
func scope(c *gin.Context) string {
	if mw.IsAdmin(c) {
		return ""
	}
	return mw.UserID(c)
}

// @Summary      Create order
// @Description  Creates a gateway order. With isHalfPaid the amount is the first half and the remainder is tracked for a second order.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Param        request body order.CreateRequest true "order"
// @Success      200  {object}  handlers.RespOrder
// @Router       /api/v1/order [post]
func ApiCreateOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		o, err := svc.Create(c.Request.Context(), mw.UserID(c), req)
		if err != nil {
			fail(c, "order_create_error", err)
			return
		}
		ok(c, o)
	}
}

// @Summary      Get order
// @Description  Returns the order, refreshing its status from the gateway until both payments are settled.
// @Tags         Orders
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Param        id        path   string true "order id"
// @Success      200  {object}  handlers.RespOrder
// @Router       /api/v1/orders/{id} [get]
func ApiGetOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), scope(c), c.Param("id"))
		if err != nil {
			fail(c, "order_get_error", err)
			return
		}
		ok(c, o)
	}
}

// @Summary      Order payments
// @Description  Gateway payments made against a gateway order id.
// @Tags         Orders
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Param        id        path   string true "gateway order id"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/orders/{id}/payments [get]
func ApiOrderPayments(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Payments(c.Request.Context(), scope(c), c.Param("id"))
		if err != nil {
			fail(c, "order_payments_error", err)
			return
		}
		ok(c, res)
	}
}

// @Summary      My orders
// @Tags         Orders
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Success      200  {object}  handlers.RespOrders
// @Router       /api/v1/user/orders [get]
func ApiUserOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListForUser(c.Request.Context(), mw.UserID(c))
		if err != nil {
			fail(c, "order_list_error", err)
			return
		}
		ok(c, list)
	}
}

// @Summary      Pay the remainder
// @Description  Creates the second gateway order of a half-paid purchase.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Param        request body order.RemainingRequest true "remaining payment"
// @Success      200  {object}  handlers.RespOrder
// @Router       /api/v1/orders/remaining-payment [post]
func ApiCreateRemainingPayment(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.RemainingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		o, err := svc.CreateRemainingPayment(c.Request.Context(), mw.UserID(c), req)
		if err != nil {
			fail(c, "order_remaining_payment_error", err)
			return
		}
		ok(c, o)
	}
}

func RegisterOrderRoutes(r gin.IRouter, svc *order.Service) {
	r.POST("/order", ApiCreateOrder(svc))
	r.GET("/orders/:id", ApiGetOrder(svc))
	r.GET("/orders/:id/payments", ApiOrderPayments(svc))
	r.POST("/orders/remaining-payment", ApiCreateRemainingPayment(svc))
	r.GET("/user/orders", ApiUserOrders(svc))
}
