// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/embano1/consult-insights/internal/artifact"
	"github.com/embano1/consult-insights/internal/poller"
)

const namespace = "consult_insights"

// Metrics holds all Prometheus metrics of the service. It implements
// poller.Observer.
type Metrics struct {
	// Poll metrics
	PollTicks     *prometheus.CounterVec
	PollErrors    *prometheus.CounterVec
	PollsFinished *prometheus.CounterVec
	TickLatency   *prometheus.HistogramVec
	PollDuration  *prometheus.HistogramVec
	WatchesActive prometheus.Gauge

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventErrors     *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

var _ poller.Observer = (*Metrics)(nil)

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PollTicks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Total number of artifact polls by outcome",
		}, []string{"artifact", "outcome"}),
		PollErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Total number of failed artifact fetches by error kind",
		}, []string{"artifact", "kind"}),
		PollsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_finished_total",
			Help:      "Total number of pollers that reached a terminal state",
		}, []string{"artifact", "state"}),
		TickLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_tick_latency_seconds",
			Help:      "Latency of a single artifact fetch",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"artifact"}),
		PollDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time from poll start until a terminal state",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"artifact"}),
		WatchesActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watches_active",
			Help:      "Number of consultations currently being watched",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of published artifact events",
		}, []string{"type"}),
		EventErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_errors_total",
			Help:      "Total number of artifact events that failed to publish",
		}, []string{"type"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests",
		}, []string{"route", "status"}),
	}
}

// TickCompleted records a finished fetch.
func (m *Metrics) TickCompleted(location string, outcome artifact.Outcome, latency time.Duration) {
	a := artifactLabel(location)
	m.PollTicks.WithLabelValues(a, outcome.String()).Inc()
	m.TickLatency.WithLabelValues(a).Observe(latency.Seconds())
}

// FetchFailed records a classified fetch error.
func (m *Metrics) FetchFailed(location string, err *artifact.FetchError) {
	m.PollErrors.WithLabelValues(artifactLabel(location), err.Kind.String()).Inc()
}

// Finished records a poller reaching a terminal state.
func (m *Metrics) Finished(location string, state poller.State, _ int, elapsed time.Duration) {
	a := artifactLabel(location)
	m.PollsFinished.WithLabelValues(a, state.String()).Inc()
	m.PollDuration.WithLabelValues(a).Observe(elapsed.Seconds())
}

// RecordEvent records an event publish attempt.
func (m *Metrics) RecordEvent(eventType string, err error) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
	if err != nil {
		m.EventErrors.WithLabelValues(eventType).Inc()
	}
}

// RecordRequest records a served API request.
func (m *Metrics) RecordRequest(route, status string) {
	m.HTTPRequests.WithLabelValues(route, status).Inc()
}

// artifactLabel keeps label cardinality bounded by using the artifact
// folder instead of the full location.
func artifactLabel(location string) string {
	folder, _, ok := strings.Cut(location, "/")
	if !ok {
		return "unknown"
	}
	return folder
}
