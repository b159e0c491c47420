// Package observability holds the Prometheus collectors and OpenTelemetry
// tracing helpers shared by the server, services and repositories.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PostsCreated counts published posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_created_total",
		Help: "Total number of posts created",
	})

	// CommentsCreated counts accepted comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_comments_created_total",
		Help: "Total number of comments created",
	})

	// FollowOutcomes counts follow/unfollow requests by result.
	FollowOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follow_outcomes_total",
		Help: "Follow and unfollow requests by outcome",
	}, []string{"outcome"})

	// PageCacheLookups counts page cache lookups by backend and result (hit, miss, error).
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_lookups_total",
		Help: "Page cache lookups by backend and result",
	}, []string{"backend", "result"})
)

// DatabaseMetrics records query latency for one logical table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a DatabaseMetrics for table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}
