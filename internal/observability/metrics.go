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
	ActiveSessions  prometheus.Gauge
	Turns           *prometheus.CounterVec
	Saves           prometheus.Counter
	GenerateLatency prometheus.Histogram
	Retrievals      *prometheus.CounterVec
	ProfileRebuilds *prometheus.CounterVec

	turnStages *turnStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live conversation sessions.",
		}),
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by outcome (decision tag or error reason).",
		}, []string{"outcome"}),
		Saves: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_saves_total",
			Help:      "Confirmed log entries written to storage.",
		}),
		GenerateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_latency_seconds",
			Help:      "Latency of generation-service calls in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
		}),
		Retrievals: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Log retrieval attempts by outcome.",
		}, []string{"outcome"}),
		ProfileRebuilds: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_rebuilds_total",
			Help:      "Profile rebuild runs by outcome.",
		}, []string{"outcome"}),
		turnStages: newTurnStageWindow(256),
	}
}

func (m *Metrics) ObserveGenerateLatency(d time.Duration) {
	m.GenerateLatency.Observe(d.Seconds())
}

// ObserveTurnStage records one stage duration in the rolling latency window.
func (m *Metrics) ObserveTurnStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.turnStages.Observe(stage, float64(d.Milliseconds()))
}

// SnapshotTurnStages summarizes the rolling latency window for the perf
// endpoint.
func (m *Metrics) SnapshotTurnStages() TurnStageSnapshot {
	return m.turnStages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
