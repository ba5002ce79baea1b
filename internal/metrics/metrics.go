package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration is labelled by the chi route pattern, not the raw path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route", "status"},
	)

	NotificationsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_emitted_total",
			Help: "Notifications produced by deadline evaluation",
		},
		[]string{"title"},
	)

	// source: notification, stats, activity
	DateParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "date_parse_failures_total",
			Help: "Stored date/time values that could not be parsed",
		},
		[]string{"source"},
	)

	RewardPointsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_points_awarded_total",
			Help: "Reward points granted for project completion",
		},
	)

	AnalyticsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_compute_seconds",
			Help:    "Time spent computing dashboard stats and activity feeds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"operation"},
	)
)

// RecordHTTPRequestDuration records one served request.
func RecordHTTPRequestDuration(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func IncrementNotification(title string) {
	NotificationsEmitted.WithLabelValues(title).Inc()
}

func IncrementDateParseFailure(source string) {
	DateParseFailures.WithLabelValues(source).Inc()
}

func AddRewardPoints(n int) {
	RewardPointsAwarded.Add(float64(n))
}

// ObserveAnalytics records how long an analytics operation took since start.
func ObserveAnalytics(operation string, start time.Time) {
	AnalyticsDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
