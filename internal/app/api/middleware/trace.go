package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/tool"
)

// HeaderRequestID carries the trace id in and out of the service.
const HeaderRequestID = "X-Request-ID"

// TraceMiddleware reuses the caller's X-Request-ID or mints a UUIDv7, stores
// it on gin.Context and the request context, and echoes it on the response.
func TraceMiddleware(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderRequestID)
		if traceID == "" {
			traceID = tool.GenerateUUIDV7()
		}

		c.Set(logctx.GinTraceIDKey, traceID)
		c.Request = c.Request.WithContext(logctx.WithTraceID(c.Request.Context(), traceID))
		c.Writer.Header().Set(HeaderRequestID, traceID)

		log.Debugw("request_traced", "trace_id", traceID, "path", c.Request.URL.Path)
		c.Next()
	}
}
