package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Commit results recorded by BookingCommits.
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	// Booking metrics
	SlotQueries    *prometheus.CounterVec
	BookingCommits *prometheus.CounterVec
	CommitLatency  prometheus.Histogram

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// New creates all metrics and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path", "status"}),
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		SlotQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_queries_total",
			Help:      "Total number of slot availability queries",
		}, []string{"status"}),
		BookingCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_commits_total",
			Help:      "Booking commit attempts by result",
		}, []string{"result"}),
		CommitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_commit_duration_seconds",
			Help:      "Time spent committing a booking",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		OutboxEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}

// ObserveCommit records a booking commit outcome. Safe on a nil receiver.
func (m *Metrics) ObserveCommit(result string, seconds float64) {
	if m == nil {
		return
	}
	m.BookingCommits.WithLabelValues(result).Inc()
	m.CommitLatency.Observe(seconds)
}

// ObserveSlotQuery records a slot query outcome. Safe on a nil receiver.
func (m *Metrics) ObserveSlotQuery(status string) {
	if m == nil {
		return
	}
	m.SlotQueries.WithLabelValues(status).Inc()
}

// ObserveDB records a database operation outcome. Safe on a nil receiver.
func (m *Metrics) ObserveDB(operation string, err error) {
	if m == nil {
		return
	}
	status := ResultSuccess
	if err != nil {
		status = ResultError
	}
	m.DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// ObserveRequest records an HTTP request. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.RequestDuration.WithLabelValues(method, path, code).Observe(seconds)
	m.RequestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveOutbox records one outbox event delivery attempt. Safe on a nil receiver.
func (m *Metrics) ObserveOutbox(eventType string, err error, seconds float64) {
	if m == nil {
		return
	}
	m.OutboxProcessingLatency.Observe(seconds)
	if err != nil {
		m.OutboxEventsFailed.Inc()
		m.OutboxRetries.WithLabelValues(eventType).Inc()
		return
	}
	m.OutboxEventsProcessed.Inc()
}
