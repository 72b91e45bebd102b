package handlers

import (
	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/billing/internal/app/api/middleware"
	"github.com/fatflowers/billing/internal/app/service/order"
	"github.com/fatflowers/billing/internal/app/service/payment"
)

// @Summary      Payment history
// @Description  Stored payments of the caller's gateway customer.
// @Tags         Payments
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Success      200  {object}  handlers.RespPayments
// @Router       /api/v1/payments/history [get]
func ApiPaymentHistory(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.History(c.Request.Context(), mw.UserID(c))
		if err != nil {
			fail(c, "payment_history_error", err)
			return
		}
		ok(c, list)
	}
}

// @Summary      Invoice of a payment
// @Tags         Payments
// @Produce      json
// @Param        paymentId path string true "gateway payment id"
// @Success      200  {object}  handlers.RespInvoice
// @Router       /api/v1/payments/invoice/{paymentId} [get]
func ApiPaymentInvoice(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		inv, err := svc.InvoiceFor(c.Request.Context(), c.Param("paymentId"))
		if err != nil {
			fail(c, "payment_invoice_error", err)
			return
		}
		ok(c, inv)
	}
}

// @Summary      Verify checkout payment
// @Description  Checks the checkout signature HMAC(order_id|payment_id) and marks the order paid.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        request body order.VerifyRequest true "checkout callback"
// @Success      200  {object}  handlers.RespOrder
// @Router       /api/v1/payments/payment/verify [post]
func ApiVerifyPayment(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		o, err := svc.VerifyPayment(c.Request.Context(), req)
		if err != nil {
			fail(c, "payment_verify_error", err)
			return
		}
		ok(c, o)
	}
}

// @Summary      Verify remaining payment
// @Description  Same as verify, for the second order of a half-paid purchase.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        request body order.VerifyRequest true "checkout callback"
// @Success      200  {object}  handlers.RespOrder
// @Router       /api/v1/payments/payment/remaining-verify [post]
func ApiVerifyRemainingPayment(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		o, err := svc.VerifyRemainingPayment(c.Request.Context(), req)
		if err != nil {
			fail(c, "payment_remaining_verify_error", err)
			return
		}
		ok(c, o)
	}
}

func RegisterPaymentRoutes(r gin.IRouter, svc *payment.Service, orders *order.Service) {
	g := r.Group("/payments")
	g.GET("/history", ApiPaymentHistory(svc))
	g.GET("/invoice/:paymentId", ApiPaymentInvoice(svc))
	g.POST("/payment/verify", ApiVerifyPayment(orders))
	g.POST("/payment/remaining-verify", ApiVerifyRemainingPayment(orders))
}
