// Package metrics provides Prometheus metrics for the staging service.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - http_request_body_bytes: Histogram of POST body sizes per route
//
// Staging metrics:
//   - staging_results_total: Counter with cancer_type and stage labels
//   - staging_failures_total: Counter with reason label
//   - extraction_confidence: Histogram of overall extraction confidence
//   - audit_records_pruned_total: Counter of records removed by retention
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Failure reasons recorded by RecordFailure.
const (
	ReasonExtraction = "extraction"
	ReasonValidation = "validation"
	ReasonStaging    = "staging"
	ReasonAudit      = "audit"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	HTTPRequestBodyBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_body_bytes",
			Help:    "Size of submitted reports and feature payloads",
			Buckets: prometheus.ExponentialBuckets(256, 4, 7),
		},
		[]string{"path"},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	StagingResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staging_results_total",
			Help: "Staging verdicts by cancer type and stage",
		},
		[]string{"cancer_type", "stage"},
	)

	StagingFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staging_failures_total",
			Help: "Requests that did not produce a staging verdict",
		},
		[]string{"reason"},
	)

	ExtractionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extraction_confidence",
			Help:    "Overall confidence of extracted features",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	AuditRecordsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_records_pruned_total",
			Help: "Audit records removed by the retention job",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(HTTPRequestBodyBytes)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(StagingResultsTotal)
	prometheus.MustRegister(StagingFailuresTotal)
	prometheus.MustRegister(ExtractionConfidence)
	prometheus.MustRegister(AuditRecordsPruned)
}

// RecordStaging counts one verdict. label is the full stage label.
func RecordStaging(cancerType, label string) {
	StagingResultsTotal.WithLabelValues(cancerType, label).Inc()
}

// RecordFailure counts a request that failed for reason.
func RecordFailure(reason string) {
	StagingFailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveConfidence records an overall extraction confidence.
func ObserveConfidence(c float64) {
	ExtractionConfidence.Observe(c)
}
