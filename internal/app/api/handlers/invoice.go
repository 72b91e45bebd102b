package handlers

import (
	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/billing/internal/app/api/middleware"
	"github.com/fatflowers/billing/internal/app/service/invoice"
)

// @Summary      Invoices of a subscription
// @Tags         Invoices
// @Produce      json
// @Param        X-User-ID      header string true "caller id"
// @Param        subscriptionId path   string true "gateway subscription id"
// @Success      200  {object}  handlers.RespInvoices
// @Router       /api/v1/invoices/{subscriptionId} [get]
func ApiSubscriptionInvoices(svc *invoice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.BySubscription(c.Request.Context(), mw.UserID(c), c.Param("subscriptionId"))
		if err != nil {
			fail(c, "invoice_list_error", err)
			return
		}
		ok(c, list)
	}
}

// @Summary      Get invoice
// @Tags         Invoices
// @Produce      json
// @Param        invoiceId path string true "gateway invoice id"
// @Success      200  {object}  handlers.RespInvoice
// @Router       /api/v1/invoice/{invoiceId} [get]
func ApiGetInvoice(svc *invoice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		inv, err := svc.Get(c.Request.Context(), c.Param("invoiceId"))
		if err != nil {
			fail(c, "invoice_get_error", err)
			return
		}
		ok(c, inv)
	}
}

// @Summary      List invoices
// @Description  Invoices of the caller's gateway customer.
// @Tags         Invoices
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Success      200  {object}  handlers.RespInvoices
// @Router       /api/v1/invoices [get]
func ApiListInvoices(svc *invoice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListForUser(c.Request.Context(), mw.UserID(c))
		if err != nil {
			fail(c, "invoice_list_error", err)
			return
		}
		ok(c, list)
	}
}

// @Summary      Resend invoice
// @Description  Asks the gateway to notify the customer again. Rejected with 40900 for paid, cancelled or expired invoices.
// @Tags         Invoices
// @Produce      json
// @Param        invoiceId path string true "gateway invoice id"
// @Param        medium    path string true "email or sms"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/invoice/notify/{invoiceId}/{medium} [post]
func ApiNotifyInvoice(svc *invoice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Notify(c.Request.Context(), c.Param("invoiceId"), c.Param("medium"))
		if err != nil {
			fail(c, "invoice_notify_error", err)
			return
		}
		ok(c, res)
	}
}

func RegisterInvoiceRoutes(r gin.IRouter, svc *invoice.Service) {
	r.GET("/invoices/:subscriptionId", ApiSubscriptionInvoices(svc))
	r.GET("/invoice/:invoiceId", ApiGetInvoice(svc))
	r.GET("/invoices", ApiListInvoices(svc))
	r.POST("/invoice/notify/:invoiceId/:medium", ApiNotifyInvoice(svc))
}
