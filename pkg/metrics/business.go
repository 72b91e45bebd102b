package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const businessSubsystem = "billing"

var webhookEvents = &Metric{
	ID:          "webhookEvents",
	Name:        "webhook_events_total",
	Description: "Gateway webhook deliveries by event type and outcome.",
	Type:        "counter_vec",
	Args:        []string{"event", "outcome"},
}

var tokenAdjustments = &Metric{
	ID:          "tokenAdjustments",
	Name:        "token_adjustments_total",
	Description: "Token balance changes by log type and outcome.",
	Type:        "counter_vec",
	Args:        []string{"type", "outcome"},
}

var gatewayLatency = &Metric{
	ID:          "gatewayLatency",
	Name:        "gateway_call_ms",
	Description: "Payment gateway call latency in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"op", "outcome"},
}

// Business holds the domain counters. A nil *Business records nothing, so
// services and tests can run without a registry.
type Business struct {
	webhookEvents    *prometheus.CounterVec
	tokenAdjustments *prometheus.CounterVec
	gatewayLatency   *prometheus.HistogramVec
}

// NewBusiness registers the domain collectors on reg. Collectors already
// present on reg are reused.
func NewBusiness(reg prometheus.Registerer) *Business {
	return &Business{
		webhookEvents:    registerOn(reg, webhookEvents).(*prometheus.CounterVec),
		tokenAdjustments: registerOn(reg, tokenAdjustments).(*prometheus.CounterVec),
		gatewayLatency:   registerOn(reg, gatewayLatency).(*prometheus.HistogramVec),
	}
}

func registerOn(reg prometheus.Registerer, def *Metric) prometheus.Collector {
	c := NewMetric(def, businessSubsystem)
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (b *Business) WebhookEvent(eventType, outcome string) {
	if b == nil {
		return
	}
	b.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (b *Business) TokenAdjustment(kind, outcome string) {
	if b == nil {
		return
	}
	b.tokenAdjustments.WithLabelValues(kind, outcome).Inc()
}

func (b *Business) ObserveGateway(op, outcome string, start time.Time) {
	if b == nil {
		return
	}
	b.gatewayLatency.WithLabelValues(op, outcome).Observe(MillisecondsSince(start))
}

var Module = fx.Options(
	fx.Provide(func() *Business { return NewBusiness(prometheus.DefaultRegisterer) }),
)
