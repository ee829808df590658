package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reason labels for LocationReportsDropped.
const (
	DropInactiveShift  = "inactive_shift"
	DropStaleTimestamp = "stale_timestamp"
	DropSlowSubscriber = "slow_subscriber"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Business metrics
	AssignmentRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_runs_total",
			Help: "Total number of assignment passes",
		},
		[]string{"service", "status"},
	)

	RoutesPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routes_persisted_total",
			Help: "Total number of routes persisted per assignment pass outcome",
		},
		[]string{"service", "status"},
	)

	ActiveShiftsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_shifts_total",
			Help: "Current number of active driver shifts",
		},
		[]string{"service"},
	)

	OrderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"service", "to_status"},
	)

	LocationReportsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_reports_ingested_total",
			Help: "Total number of accepted location reports",
		},
		[]string{"service"},
	)

	// Dropped reports are expected noise, not errors; they are only
	// observable here.
	LocationReportsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_reports_dropped_total",
			Help: "Total number of dropped location reports by reason",
		},
		[]string{"service", "reason"},
	)

	WebSocketConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_total",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service", "kind"},
	)

	DatabaseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"service", "operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	RabbitMQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Total number of messages published to RabbitMQ",
		},
		[]string{"service", "exchange", "status"},
	)
)

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, status).Observe(duration.Seconds())
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(service, operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueriesTotal.WithLabelValues(service, operation, status).Inc()
	DatabaseQueryDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordRabbitMQPublish records RabbitMQ publish metrics
func RecordRabbitMQPublish(service, exchange string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesPublished.WithLabelValues(service, exchange, status).Inc()
}

// RecordLocationDrop counts one dropped location report.
func RecordLocationDrop(service, reason string) {
	LocationReportsDropped.WithLabelValues(service, reason).Inc()
}
