// Package metrics defines the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application instruments. Construct one per process with
// New and pass it to the components that record observations.
type Metrics struct {
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	UploadsTotal    *prometheus.CounterVec
	UploadDuration  prometheus.Histogram
	UploadBytes     prometheus.Counter
	UploadChunks    prometheus.Counter
	ArchiveFailures prometheus.Counter

	EventPublishTotal *prometheus.CounterVec
}

// New builds the instrument set and registers it on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qareel_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qareel_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qareel_uploads_total",
			Help: "Recording uploads by outcome code",
		}, []string{"status"}),

		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qareel_upload_duration_seconds",
			Help:    "End-to-end recording upload duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),

		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qareel_upload_bytes_total",
			Help: "Total recording bytes transferred to the video host",
		}),

		UploadChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qareel_upload_chunks_total",
			Help: "Chunk transfers acknowledged by the video host",
		}),

		ArchiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qareel_archive_failures_total",
			Help: "Recording archive attempts that failed",
		}),

		EventPublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qareel_event_publish_total",
			Help: "Event publish operations by outcome",
		}, []string{"event_type", "status"}),
	}

	reg.MustRegister(
		m.HTTPRequestTotal,
		m.HTTPRequestDuration,
		m.UploadsTotal,
		m.UploadDuration,
		m.UploadBytes,
		m.UploadChunks,
		m.ArchiveFailures,
		m.EventPublishTotal,
	)

	return m
}
