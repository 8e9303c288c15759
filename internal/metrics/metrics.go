// Package metrics exposes Prometheus counters for the coin economy.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	LedgerEntries   *prometheus.CounterVec
	LedgerCoins     *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	RejectedOps     *prometheus.CounterVec
	EventFailures   prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LedgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kidcoins",
			Name:      "ledger_entries_total",
			Help:      "Coin transactions appended, by type.",
		}, []string{"type"}),
		LedgerCoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kidcoins",
			Name:      "ledger_coins_total",
			Help:      "Absolute coins moved, by type and direction.",
		}, []string{"type", "direction"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kidcoins",
			Name:      "workflow_transitions_total",
			Help:      "Successful state transitions, by workflow and target state.",
		}, []string{"workflow", "to"}),
		RejectedOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kidcoins",
			Name:      "rejected_operations_total",
			Help:      "Operations refused, by operation and error kind.",
		}, []string{"operation", "kind"}),
		EventFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kidcoins",
			Name:      "event_publish_failures_total",
			Help:      "Domain events that could not be published.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kidcoins",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.LedgerEntries,
		m.LedgerCoins,
		m.Transitions,
		m.RejectedOps,
		m.EventFailures,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// LedgerAppended records one posted transaction
func (m *Metrics) LedgerAppended(txType string, amount int64) {
	if m == nil {
		return
	}
	direction := "credit"
	if amount < 0 {
		direction = "debit"
		amount = -amount
	}
	m.LedgerEntries.WithLabelValues(txType).Inc()
	m.LedgerCoins.WithLabelValues(txType, direction).Add(float64(amount))
}

// Transition records a successful workflow transition
func (m *Metrics) Transition(workflow, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(workflow, to).Inc()
}

// Rejected records a refused operation
func (m *Metrics) Rejected(operation, kind string) {
	if m == nil {
		return
	}
	m.RejectedOps.WithLabelValues(operation, kind).Inc()
}

// EventFailed records a failed publish
func (m *Metrics) EventFailed() {
	if m == nil {
		return
	}
	m.EventFailures.Inc()
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
