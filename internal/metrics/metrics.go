// Package metrics holds the Prometheus collectors for the discovery pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Extraction results.
const (
	ResultExtracted     = "extracted"
	ResultRejected      = "rejected"
	ResultUnextractable = "unextractable"
	ResultGated         = "gated"
	ResultDiscarded     = "discarded"
)

var (
	messagesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subscout_messages_scanned_total",
		Help: "Mailbox messages fetched for extraction",
	})

	extractionResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscout_extraction_results_total",
		Help: "Extraction outcomes by stage",
	}, []string{"stage", "result"})

	classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscout_classifications_total",
		Help: "Candidates classified against existing records",
	}, []string{"classification"})

	commitResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscout_commit_results_total",
		Help: "Commit outcomes by operation",
	}, []string{"operation", "result"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "subscout_scan_duration_seconds",
		Help:    "End-to-end scan latency",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
	})

	// HTTPRequests counts API requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscout_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// HTTPLatency observes API request latency.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subscout_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"method", "endpoint"})
)

// MessagesScanned adds n fetched messages.
func MessagesScanned(n int) {
	messagesScanned.Add(float64(n))
}

// ExtractionResult records one message's outcome at a stage.
func ExtractionResult(stage, result string) {
	extractionResults.WithLabelValues(stage, result).Inc()
}

// Classified records one classification.
func Classified(classification string) {
	classifications.WithLabelValues(classification).Inc()
}

// CommitResult records one applied or failed commit item.
func CommitResult(operation, result string) {
	commitResults.WithLabelValues(operation, result).Inc()
}

// ObserveScan records a scan's duration in seconds.
func ObserveScan(seconds float64) {
	scanDuration.Observe(seconds)
}
