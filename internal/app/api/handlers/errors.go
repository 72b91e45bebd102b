package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/app/service/customer"
	"github.com/fatflowers/billing/internal/app/service/invoice"
	"github.com/fatflowers/billing/internal/app/service/order"
	"github.com/fatflowers/billing/internal/app/service/payment"
	"github.com/fatflowers/billing/internal/app/service/token"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/response"
	"github.com/fatflowers/billing/pkg/types"
)

// fallbackLogger is used when a route is mounted without the request logger.
var fallbackLogger = zap.NewNop().Sugar()

func reqLogger(c *gin.Context) *zap.SugaredLogger {
	return logctx.FromGin(c, fallbackLogger)
}

// errorCode maps service errors onto envelope codes.
func errorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, types.ErrInvalidRequest),
		errors.Is(err, token.ErrUnsupportedAdjustment),
		errors.Is(err, order.ErrInvalidSignature):
		return response.APIResponseCodeBadRequest
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, customer.ErrNoCustomer),
		errors.Is(err, payment.ErrNoInvoice):
		return response.APIResponseCodeNotFound
	case errors.Is(err, ledger.ErrInsufficientTokens),
		errors.Is(err, ledger.ErrDuplicate),
		errors.Is(err, invoice.ErrNotifyBlocked),
		errors.Is(err, order.ErrNotEligible):
		return response.APIResponseCodeConflict
	case errors.Is(err, gateway.ErrGateway), errors.Is(err, gateway.ErrNotConfigured):
		return response.APIResponseCodeGateway
	default:
		return response.APIResponseCodeError
	}
}

// fail logs err under event and writes the error envelope.
func fail(c *gin.Context, event string, err error) {
	code := errorCode(err)
	log := reqLogger(c)
	if code >= response.APIResponseCodeError {
		log.Errorw(event, "error", err.Error(), "code", code)
	} else {
		log.Warnw(event, "error", err.Error(), "code", code)
	}
	c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, msg))
}

func ok[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, response.OKT(data))
}
