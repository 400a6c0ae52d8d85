package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	clientRequestsTotal  *prometheus.CounterVec
	clientLatencySeconds *prometheus.HistogramVec
	clientErrorsTotal    *prometheus.CounterVec
	uploadRejectedTotal  *prometheus.CounterVec
	refreshOutcomesTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the admin client.
func RegisterMetrics() {
	registerOnce.Do(func() {
		clientRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_client_requests_total",
			Help: "Total number of requests issued to the school backend.",
		}, []string{"method", "resource", "status"})

		clientLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_client_request_seconds",
			Help:    "Latency distribution for backend requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "resource"})

		clientErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_client_errors_total",
			Help: "Total number of failed backend calls by error kind.",
		}, []string{"kind"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_client_upload_rejected_total",
			Help: "Uploads rejected before reaching the backend.",
		}, []string{"reason"})

		refreshOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_client_refresh_total",
			Help: "Post-mutation refresh outcomes by target.",
		}, []string{"target", "outcome"})

		prometheus.MustRegister(clientRequestsTotal, clientLatencySeconds, clientErrorsTotal, uploadRejectedTotal, refreshOutcomesTotal)
	})
}

// ClientRequests exposes the counter for backend requests.
func ClientRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return clientRequestsTotal
}

// ClientLatency exposes the latency histogram for backend requests.
func ClientLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return clientLatencySeconds
}

// ClientErrors exposes the counter for failed backend calls.
func ClientErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return clientErrorsTotal
}

// UploadRejected exposes the counter for uploads refused client-side.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// RefreshOutcomes exposes the counter for list and stats refreshes.
func RefreshOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return refreshOutcomesTotal
}
