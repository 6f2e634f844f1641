// Package metrics exposes entitlement decision counters via Prometheus and
// low-cardinality HTTP metrics via OpenTelemetry.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every metric.
type Config struct {
	ServiceName string
	Environment string
}

// DecisionMetrics counts entitlement outcomes and times consume round trips.
type DecisionMetrics struct {
	decisions       *prometheus.CounterVec
	consumeDuration *prometheus.HistogramVec
}

var (
	decisionMetricsOnce sync.Once
	decisionMetrics     *DecisionMetrics
)

// Decisions returns the process-wide decision metrics, registering them on
// first use.
func Decisions(cfg Config) *DecisionMetrics {
	decisionMetricsOnce.Do(func() {
		decisionMetrics = newDecisionMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return decisionMetrics
}

// ResetDecisionMetricsForTest clears the singleton between test runs.
func ResetDecisionMetricsForTest() {
	decisionMetricsOnce = sync.Once{}
	decisionMetrics = nil
}

func newDecisionMetrics(registerer prometheus.Registerer, cfg Config) *DecisionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "debugcv"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "entitlement_decisions_total",
			Help:        "Entitlement decisions by action, tier and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"action", "tier", "allowed"},
	)
	consumeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "entitlement_consume_duration_seconds",
			Help:        "Latency of the atomic consume path.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	registerer.MustRegister(decisions, consumeDuration)
	return &DecisionMetrics{
		decisions:       decisions,
		consumeDuration: consumeDuration,
	}
}

// RecordDecision counts one decision outcome.
func (m *DecisionMetrics) RecordDecision(action, tier string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "false"
	if allowed {
		outcome = "true"
	}
	m.decisions.WithLabelValues(action, tier, outcome).Inc()
}

// RecordConsume times one TryConsume call.
func (m *DecisionMetrics) RecordConsume(action string, duration time.Duration) {
	if m == nil {
		return
	}
	m.consumeDuration.WithLabelValues(action).Observe(duration.Seconds())
}
