package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/billing/internal/app/service/webhook"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/response"
)

const (
	HeaderRazorpaySignature = "X-Razorpay-Signature"
	HeaderSignature         = "X-Signature"
	HeaderRazorpayEventID   = "X-Razorpay-Event-Id"

	maxWebhookBody = 1 << 20
)

// @Summary      Razorpay Webhook
// @Description  Verifies the X-Razorpay-Signature (or X-Signature) HMAC over the raw body and applies the event. Unlike the other endpoints the HTTP status is meaningful: 401 on a bad signature, 500 when the event should be redelivered.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        X-Razorpay-Signature  header  string  false  "hex HMAC-SHA256 of the body"
// @Param        X-Signature           header  string  false  "alias of X-Razorpay-Signature"
// @Param        X-Razorpay-Event-Id   header  string  false  "delivery id"
// @Param        payload body object true "Razorpay event"
// @Success      200  {object}  handlers.RespWebhook
// @Failure      401  {object}  handlers.RespOK
// @Failure      500  {object}  handlers.RespOK
// @Router       /webhook/razorpay [post]
func ApiRazorpayWebhook(d *webhook.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			reqLogger(c).Warnw("webhook_body_read_error", "error", err.Error())
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := d.Dispatch(c.Request.Context(), webhook.Delivery{
			Body:      body,
			Signature: webhookSignature(c),
			EventID:   c.GetHeader(HeaderRazorpayEventID),
			TraceID:   c.GetString(logctx.GinTraceIDKey),
		})
		switch {
		case errors.Is(err, webhook.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
		case err != nil:
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](errorCode(err), err.Error()))
		default:
			c.JSON(http.StatusOK, response.OKT(res))
		}
	}
}

// webhookSignature prefers the gateway header and falls back to X-Signature.
func webhookSignature(c *gin.Context) string {
	if sig := c.GetHeader(HeaderRazorpaySignature); sig != "" {
		return sig
	}
	return c.GetHeader(HeaderSignature)
}

func RegisterWebhookRoutes(r gin.IRouter, d *webhook.Dispatcher) {
	h := ApiRazorpayWebhook(d)
	r.POST("/webhook", h)
	r.POST("/webhook/razorpay", h)
}
