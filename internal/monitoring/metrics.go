package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FetchAttemptsTotal  *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	PreviewsTotal       *prometheus.CounterVec
	SummariesTotal      *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_fetch_attempts_total",
			Help: "The total number of upstream fetch attempts",
		}, []string{"outcome"}), // e.g., 'ok', 'not_found', 'timeout'
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curator_fetch_duration_seconds",
			Help:    "Duration of upstream fetches including retries",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30},
		}, []string{"fetcher"}),
		PreviewsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_previews_total",
			Help: "The total number of preview pipeline runs",
		}, []string{"result"}),
		SummariesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_summaries_total",
			Help: "The total number of summaries by production path",
		}, []string{"path"}), // 'model', 'fallback', 'short'
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) IncFetchAttempt(outcome string) {
	if m == nil {
		return
	}
	m.FetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFetch(fetcher string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(fetcher).Observe(d.Seconds())
}

func (m *Metrics) IncPreview(result string) {
	if m == nil {
		return
	}
	m.PreviewsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncSummary(path string) {
	if m == nil {
		return
	}
	m.SummariesTotal.WithLabelValues(path).Inc()
}

func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
