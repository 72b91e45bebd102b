package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/pkg/logctx"
)

// RequestLoggerMiddleware derives one logger per request from base, tagged
// with the correlation ids and the matched route, and stores it on both
// gin.Context and the request context. Downstream services reach it through
// logctx.FromCtx. Must run after TraceMiddleware and UserMiddleware.
func RequestLoggerMiddleware(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		fields := append(logctx.Fields(ctx), "route", c.FullPath())
		reqLogger := base.With(fields...)

		c.Set(logctx.GinLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(logctx.WithLogger(ctx, reqLogger))
		c.Next()
	}
}
