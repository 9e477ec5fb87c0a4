package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/speculative-artefact/compactImg/internal/logger"
)

var (
	// RequestsTotal counts the number of HTTP requests received
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compactimg_requests_total",
			Help: "The total number of HTTP requests processed by the API",
		},
		[]string{"method", "status", "endpoint"},
	)

	// RequestDuration measures the duration of HTTP requests
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compactimg_request_duration_seconds",
			Help:    "The duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// UploadsTotal counts uploaded files by validation outcome
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compactimg_uploads_total",
			Help: "The total number of uploaded files by outcome",
		},
		[]string{"result"},
	)

	// ProcessingTotal counts total processed images
	ProcessingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compactimg_processing_total",
			Help: "The total number of processed images",
		},
		[]string{"status"},
	)

	// ProcessingDuration measures the duration of image processing
	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compactimg_processing_duration_seconds",
			Help:    "The duration of image processing in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // From 100ms to ~100s
		},
		[]string{"status"},
	)

	// ImageSizeReduction measures the image size reduction percentage
	ImageSizeReduction = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compactimg_size_reduction_percentage",
			Help:    "The percentage of size reduction for processed images",
			Buckets: prometheus.LinearBuckets(0, 10, 11), // 0% to 100% in 10% increments
		},
	)
)

// RecordProcessingTime records the time taken to process an image
func RecordProcessingTime(ctx context.Context, status string, startTime time.Time) {
	duration := time.Since(startTime).Seconds()
	ProcessingDuration.WithLabelValues(status).Observe(duration)
	ProcessingTotal.WithLabelValues(status).Inc()

	reqLogger := logger.FromContext(ctx)

	reqLogger.Debug().
		Str("status", status).
		Float64("duration_seconds", duration).
		Msg("Recorded image processing time")
}

// RecordSizeReduction records the percentage of size reduction
func RecordSizeReduction(ctx context.Context, originalSize, compressedSize int64) {
	if originalSize <= 0 {
		return
	}

	percentage := (1 - (float64(compressedSize) / float64(originalSize))) * 100
	ImageSizeReduction.Observe(percentage)

	reqLogger := logger.FromContext(ctx)

	reqLogger.Debug().
		Int64("original_size", originalSize).
		Int64("compressed_size", compressedSize).
		Float64("reduction_percentage", percentage).
		Msg("Recorded image size reduction")
}

// Init initializes metrics collection
func Init() {
	logger := logger.GetLogger("metrics")
	logger.Info().Msg("Metrics collection initialized")
}
