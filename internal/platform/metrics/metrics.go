package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the card orchestrator.
type Metrics struct {
	registry                 *prometheus.Registry
	requestsTotal            prometheus.Counter
	sessionsCreatedTotal     prometheus.Counter
	sessionsEndedTotal       prometheus.Counter
	transitionsStartedTotal  prometheus.Counter
	transitionsRejectedTotal prometheus.Counter
	preloadsTotal            prometheus.Counter
	readinessTimeoutsTotal   prometheus.Counter
	activeSessions           prometheus.Gauge
	errorsTotal              prometheus.Counter
}

// New creates and registers Prometheus metrics for the orchestrator.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "card_requests_total",
		Help: "Total number of HTTP requests received",
	})
	sessionsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "card_sessions_created_total",
		Help: "Total number of sessions created",
	})
	sessionsEndedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "card_sessions_ended_total",
		Help: "Total number of sessions ended",
	})
	transitionsStartedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "card_transitions_started_total",
		Help: "Total number of navigation requests that started a transition",
	})
	transitionsRejectedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "card_transitions_rejected_total",
		Help: "Total number of navigation requests rejected as no-ops",
	})
	preloadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "card_preloads_total",
		Help: "Total number of look-ahead media preloads issued",
	})
	readinessTimeoutsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "card_readiness_timeouts_total",
		Help: "Total number of readiness sessions resolved by timeout instead of media load",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "card_active_sessions",
		Help: "Number of live sessions",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "card_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		sessionsCreatedTotal,
		sessionsEndedTotal,
		transitionsStartedTotal,
		transitionsRejectedTotal,
		preloadsTotal,
		readinessTimeoutsTotal,
		activeSessions,
		errorsTotal,
	)

	return &Metrics{
		registry:                 registry,
		requestsTotal:            requestsTotal,
		sessionsCreatedTotal:     sessionsCreatedTotal,
		sessionsEndedTotal:       sessionsEndedTotal,
		transitionsStartedTotal:  transitionsStartedTotal,
		transitionsRejectedTotal: transitionsRejectedTotal,
		preloadsTotal:            preloadsTotal,
		readinessTimeoutsTotal:   readinessTimeoutsTotal,
		activeSessions:           activeSessions,
		errorsTotal:              errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncSessionsCreated increments the sessions created counter.
func (m *Metrics) IncSessionsCreated() {
	m.sessionsCreatedTotal.Inc()
}

// IncSessionsEnded increments the sessions ended counter.
func (m *Metrics) IncSessionsEnded() {
	m.sessionsEndedTotal.Inc()
}

// IncTransitionsStarted increments the transitions started counter.
func (m *Metrics) IncTransitionsStarted() {
	m.transitionsStartedTotal.Inc()
}

// IncTransitionsRejected increments the rejected navigation counter.
func (m *Metrics) IncTransitionsRejected() {
	m.transitionsRejectedTotal.Inc()
}

// IncPreloads increments the preload counter.
func (m *Metrics) IncPreloads() {
	m.preloadsTotal.Inc()
}

// IncReadinessTimeouts increments the readiness timeout counter.
func (m *Metrics) IncReadinessTimeouts() {
	m.readinessTimeoutsTotal.Inc()
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g.
// active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
