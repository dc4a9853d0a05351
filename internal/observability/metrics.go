package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	SessionEvents     *prometheus.CounterVec
	WSMessages        *prometheus.CounterVec
	GenerationErrors  *prometheus.CounterVec
	GenerationLatency prometheus.Histogram
	DroppedEvents     prometheus.Counter

	Latency *LatencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of registered debate sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		GenerationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Generation collaborator errors by provider and operation.",
		}, []string{"provider", "op"}),
		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_ms",
			Help:      "Latency of one generation step in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
		DroppedEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Events dropped on saturated subscriber queues.",
		}),
		Latency: NewLatencyWindow(256),
	}
}

// ObserveGeneration records one generation step in both the histogram
// and the rolling window.
func (m *Metrics) ObserveGeneration(stage string, d time.Duration) {
	ms := float64(d.Milliseconds())
	m.GenerationLatency.Observe(ms)
	m.Latency.Observe(stage, ms)
}

// GenerationError counts one collaborator failure.
func (m *Metrics) GenerationError(provider, op string) {
	m.GenerationErrors.WithLabelValues(provider, op).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
