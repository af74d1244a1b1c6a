package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swappi_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MediaUploads counts media uploads by outcome ("success" or the
	// application error code).
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swappi_media_uploads_total",
		Help: "Total number of media uploads by outcome",
	}, []string{"outcome"})

	// MediaUploadLatency records single-asset upload latency in seconds.
	MediaUploadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swappi_media_upload_latency_seconds",
		Help:    "Media upload latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ProfileSubmissions counts profile submissions by terminal state.
	ProfileSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swappi_profile_submissions_total",
		Help: "Total number of profile submissions by terminal state",
	}, []string{"state"})
)

// ObserveUpload records the outcome and latency of a single media upload.
func ObserveUpload(outcome string, start time.Time) {
	MediaUploads.WithLabelValues(outcome).Inc()
	MediaUploadLatency.Observe(time.Since(start).Seconds())
}
