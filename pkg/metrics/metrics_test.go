package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusiness_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	b := NewBusiness(reg)

	b.WebhookEvent("subscription.charged", "handled")
	b.WebhookEvent("subscription.charged", "handled")
	b.TokenAdjustment("consume", "rejected")
	b.ObserveGateway("order.create", "ok", time.Now().Add(-20*time.Millisecond))

	assert.Equal(t, 2.0, testutil.ToFloat64(b.webhookEvents.WithLabelValues("subscription.charged", "handled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.tokenAdjustments.WithLabelValues("consume", "rejected")))
	assert.Equal(t, 1, testutil.CollectAndCount(b.gatewayLatency))

	again := NewBusiness(reg)
	again.WebhookEvent("subscription.charged", "handled")
	assert.Equal(t, 3.0, testutil.ToFloat64(b.webhookEvents.WithLabelValues("subscription.charged", "handled")))
}

func TestBusiness_NilIsNoop(t *testing.T) {
	var b *Business
	assert.NotPanics(t, func() {
		b.WebhookEvent("x", "y")
		b.TokenAdjustment("x", "y")
		b.ObserveGateway("x", "y", time.Now())
	})
}

func TestPrometheus_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	p := NewPrometheus(NewPrometheusOptions{
		Registry:                reg,
		ReqCntURLLabelMappingFn: func(c *gin.Context) string { return c.FullPath() },
	})

	r := gin.New()
	p.Use(r)
	r.GET("/orders/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(p.reqCnt.WithLabelValues("200", "GET", "/orders/:id", "")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "req_total"))
}

func TestComputeApproximateRequestSize(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	req.Header.Set("X-Test", "1")
	got := computeApproximateRequestSize(req)
	want := len("/webhook") + len("POST") + len("HTTP/1.1") + len("X-Test") + 1 + len("example.com") + 2
	assert.Equal(t, want, got)
}
