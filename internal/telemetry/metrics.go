// Package telemetry provides application-level observability for the outreach tracker.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<OTR_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Audit trail write counters, by action and table
//   - Potential→Disciple conversion counter
//   - Login attempt counters, by outcome
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/potentials/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as record IDs.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /api/v1/potentials/:id),
// NOT the raw URL, to prevent unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Domain metrics — recorded by the lifecycle services.
//
// AuditEntriesTotal is a CounterVec with labels {action, table} incremented once per
// audit row committed alongside a mutation.  Because an audit row exists for every
// committed mutation, this doubles as a mutation-rate metric.
//
// Example PromQL queries:
//   - Mutation rate by table:  sum by (table) (rate(audit_entries_total[1h]))
//   - Deletes in last day:     increase(audit_entries_total{action="delete"}[24h])
//
// ConversionsTotal is a plain Counter incremented once per successful
// Potential→Disciple conversion.
//
// AuditShipErrorsTotal counts failed deliveries to external audit destinations
// (file/webhook shippers).  The database audit row is unaffected by these failures;
// a growing counter means the external sink needs attention, not that audit data
// is being lost.
var (
	AuditEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit log rows committed, by action and table.",
		},
		[]string{"action", "table"},
	)

	ConversionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversions_total",
			Help: "Total number of successful potential-to-disciple conversions.",
		},
	)

	AuditShipErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_ship_errors_total",
			Help: "Total number of failed audit entry deliveries to external shippers.",
		},
	)
)

// LoginAttemptsTotal is a CounterVec with label {outcome} ("success", "failure")
// incremented on every /auth/login call.  An alert on a sustained failure rate is a
// cheap credential-stuffing signal.
//
// Example PromQL queries:
//   - Failure ratio:  sum(rate(login_attempts_total{outcome="failure"}[15m])) / sum(rate(login_attempts_total[15m]))
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
//
// Example PromQL queries:
//   - Pool utilisation (%): db_open_connections / <OTR_DATABASE_MAX_CONNECTIONS> * 100
//   - Alert on near-exhaustion: db_open_connections > 20  (for max_connections=25)
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
