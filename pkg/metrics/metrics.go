package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HistogramBuckets are in milliseconds. Gateway round-trips dominate the tail,
// so the upper range follows the Razorpay client timeout rather than HTTP SLOs.
var HistogramBuckets = []float64{
	5, 10, 25, 50, 100, 200, 300, 500,
	750, 1000, 1500, 2000, 3000, 5000,
	10000, 15000, 30000,
}

// Metric describes one collector: its kind, label set and help text.
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric builds the collector for m.Type. Unknown kinds return nil.
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	switch m.Type {
	case "counter_vec":
		return prometheus.NewCounterVec(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "histogram_vec":
		return prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets},
			m.Args,
		)
	case "summary_vec":
		return prometheus.NewSummaryVec(
			prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	}
	return nil
}

// SourceHeader lets upstream proxies tag requests (dashboard, mobile, cron)
// so request metrics can be split by caller.
const SourceHeader = "X-Billing-Source"
