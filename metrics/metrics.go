// Package metrics exposes Prometheus instruments for orchestration runs,
// agent calls and the persistence sink. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medtriage"

type Metrics struct {
	AgentCalls      *prometheus.CounterVec
	AgentDuration   *prometheus.HistogramVec
	Runs            *prometheus.CounterVec
	PersistFailures prometheus.Counter
	PersistDropped  prometheus.Counter
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AgentCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_calls_total",
			Help:      "Agent calls by agent and outcome (ok, error).",
		}, []string{"agent", "outcome"}),
		AgentDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_call_duration_seconds",
			Help:      "Latency of agent calls.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 13),
		}, []string{"agent"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed orchestration runs by inbound channel.",
		}, []string{"channel"}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Triage log records the store rejected.",
		}),
		PersistDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_dropped_total",
			Help:      "Triage log records dropped because the sink buffer was full.",
		}),
	}
}

func (m *Metrics) ObserveAgent(agent string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.AgentCalls.WithLabelValues(agent, outcome).Inc()
	m.AgentDuration.WithLabelValues(agent).Observe(d.Seconds())
}

func (m *Metrics) RunCompleted(channel string) {
	if m == nil {
		return
	}
	if channel == "" {
		channel = "unknown"
	}
	m.Runs.WithLabelValues(channel).Inc()
}

func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) PersistDrop() {
	if m == nil {
		return
	}
	m.PersistDropped.Inc()
}

// Handler serves the exposition format for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
