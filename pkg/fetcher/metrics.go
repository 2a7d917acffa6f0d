package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of a Fetcher.
type Metrics struct {
	ProbesTotal        *prometheus.CounterVec
	ProbeSeconds       *prometheus.HistogramVec
	BytesReadTotal     prometheus.Counter
	TransfersCanceled  prometheus.Counter
	BreakerTransitions *prometheus.CounterVec
}

// NewMetrics registers fetcher metrics on reg. A nil reg uses a private
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		ProbesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "record_tiers_probes_total",
				Help: "Resource probes by outcome and error kind",
			},
			[]string{"outcome", "kind"},
		),
		ProbeSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "record_tiers_probe_duration_seconds",
				Help:    "Wall time of resource probes",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		BytesReadTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "record_tiers_probe_bytes_read_total",
				Help: "Body bytes read while sniffing",
			},
		),
		TransfersCanceled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "record_tiers_transfers_canceled_total",
				Help: "Transfers canceled after a verdict was reached",
			},
		),
		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "record_tiers_breaker_transitions_total",
				Help: "Per-host circuit breaker state changes",
			},
			[]string{"to"},
		),
	}
}
