package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/response"
)

const healthTimeout = 2 * time.Second

// HealthStatus is the body of /healthz.
type HealthStatus struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// @Summary      Health check
// @Description  Pings the ledger store. A failed ping answers with code 50000 and status "degraded".
// @Tags         System
// @Produce      json
// @Success      200  {object}  handlers.RespHealth
// @Router       /healthz [get]
func ApiHealthz(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logctx.FromGin(c, zap.S()).Warnw("health_store_unreachable", "err", err)
			c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeError, HealthStatus{Status: "degraded", Store: "unreachable"}))
			return
		}
		c.JSON(http.StatusOK, response.OKT(HealthStatus{Status: "ok", Store: "ok"}))
	}
}

func RegisterHealthRoutes(r gin.IRouter, store ledger.Store) {
	r.GET("/healthz", ApiHealthz(store))
}
