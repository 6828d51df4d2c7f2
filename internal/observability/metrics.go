package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	gradingRunsTotal      *prometheus.CounterVec
	transcriptionRejected *prometheus.CounterVec
	transcriptCacheHits   prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nbgrade_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nbgrade_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nbgrade_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nbgrade_grading_runs_total",
			Help: "Number of grading runs by terminal status.",
		}, []string{"status"})

		transcriptionRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nbgrade_transcription_rejected_total",
			Help: "Number of transcription requests rejected before processing.",
		}, []string{"reason"})

		transcriptCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nbgrade_transcript_cache_hits_total",
			Help: "Number of transcription requests served from the cache.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradingRunsTotal,
			transcriptionRejected,
			transcriptCacheHits,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradingRuns exposes the counter for grading run outcomes.
func GradingRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRunsTotal
}

// TranscriptionRejected exposes the counter for rejected transcription requests.
func TranscriptionRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return transcriptionRejected
}

// TranscriptCacheHits exposes the counter for transcript cache hits.
func TranscriptCacheHits() prometheus.Counter {
	RegisterMetrics()
	return transcriptCacheHits
}
