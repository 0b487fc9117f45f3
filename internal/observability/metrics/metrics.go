package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nurture_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nurture_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	catalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nurture_catalog_requests_total",
		Help: "Count of upstream catalog calls by provider and result",
	}, []string{"provider", "result"})

	catalogCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nurture_catalog_cache_hits_total",
		Help: "Catalog cache lookups by outcome",
	}, []string{"outcome"})

	remindersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nurture_reminders_completed_total",
		Help: "Count of reminder completions recorded",
	})

	pushNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nurture_push_notifications_total",
		Help: "Count of push notification sends by result",
	}, []string{"result"})

	dueScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nurture_due_scan_duration_seconds",
		Help:    "Duration of due-reminder scans",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveCatalogRequest records an upstream catalog call outcome
func ObserveCatalogRequest(provider, result string) {
	catalogRequests.WithLabelValues(provider, result).Inc()
}

// ObserveCacheLookup records a catalog cache hit or miss
func ObserveCacheLookup(outcome string) {
	catalogCacheHits.WithLabelValues(outcome).Inc()
}

// ObserveReminderCompleted increments the completion counter
func ObserveReminderCompleted() {
	remindersCompleted.Inc()
}

// ObservePushNotification records a push send outcome
func ObservePushNotification(result string) {
	pushNotifications.WithLabelValues(result).Inc()
}

// ObserveDueScan records the duration of one due-reminder scan
func ObserveDueScan(duration time.Duration) {
	dueScanDuration.Observe(duration.Seconds())
}
