package logctx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromCtx_EnrichesBaseWithIDs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).Sugar()

	ctx := WithUserID(WithTraceID(context.Background(), "trace-1"), "u1")
	FromCtx(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, "u1", fields["user_id"])
}

func TestFromCtx_StoredLoggerWins(t *testing.T) {
	base := zap.NewNop().Sugar()
	stored := zap.NewNop().Sugar().With("k", "v")

	assert.Same(t, stored, FromCtx(WithLogger(context.Background(), stored), base))
	assert.Same(t, base, FromCtx(context.Background(), base))
	assert.Nil(t, FromCtx(WithTraceID(context.Background(), "t"), nil))
}

func TestKeysDoNotCollideWithStrings(t *testing.T) {
	ctx := context.WithValue(context.Background(), "user_id", "spoofed") //nolint:staticcheck
	assert.Empty(t, UserID(ctx))
	assert.Empty(t, TraceID(ctx))
}

func TestFromGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := zap.NewNop().Sugar()
	attached := zap.NewNop().Sugar().With("route", "/x")

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	assert.Same(t, base, FromGin(c, base))

	c.Set(GinLoggerKey, attached)
	assert.Same(t, attached, FromGin(c, base))
	assert.Same(t, base, FromGin(nil, base))
}
