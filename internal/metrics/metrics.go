// Package metrics collects and exposes Prometheus metrics for the HTTP
// surface and the social-graph engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records all application metrics. It implements
// service.EngagementMetrics for the domain counters.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	followsToggled  *prometheus.CounterVec
	likesToggled    *prometheus.CounterVec
	commentsCreated prometheus.Counter
}

// NewCollector creates a Collector with its own registry, so tests can hold
// independent instances without duplicate-registration panics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookline_http_requests_total",
			Help: "HTTP responses by status code.",
		}, []string{"status"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookline_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		followsToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookline_follows_toggled_total",
			Help: "Follow toggles by outcome (followed/unfollowed).",
		}, []string{"result"}),
		likesToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookline_likes_toggled_total",
			Help: "Like toggles by outcome (liked/unliked).",
		}, []string{"result"}),
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookline_comments_created_total",
			Help: "Comments successfully created.",
		}),
	}

	c.registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.followsToggled,
		c.likesToggled,
		c.commentsCreated,
	)

	return c
}

// FollowToggled records a resolved follow toggle.
func (c *Collector) FollowToggled(result string) {
	c.followsToggled.WithLabelValues(result).Inc()
}

// LikeToggled records a resolved like toggle.
func (c *Collector) LikeToggled(result string) {
	c.likesToggled.WithLabelValues(result).Inc()
}

// CommentAdded records a created comment.
func (c *Collector) CommentAdded() {
	c.commentsCreated.Inc()
}

// Handler returns the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// statusWriter captures the response status for the request counter.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware recording request count and latency.
func (c *Collector) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			c.requestsTotal.WithLabelValues(strconv.Itoa(sw.status)).Inc()
			c.requestDuration.Observe(time.Since(start).Seconds())
		})
	}
}
