package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "todo_bulk"

// Sub-batch names and outcomes used as label values.
const (
	SubBatchToggles = "toggles"
	SubBatchDeletes = "deletes"

	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeEmpty      = "empty"

	ResultApplied   = "applied"
	ResultDiscarded = "discarded"
	ResultFailed    = "failed"
)

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// BatchMetrics instruments the bulk update orchestrator.
type BatchMetrics struct {
	SubBatches      *prometheus.CounterVec
	Items           *prometheus.CounterVec
	ExecuteDuration prometheus.Histogram
}

// NewBatchMetrics creates and registers batch metrics on the given registry.
func NewBatchMetrics(reg prometheus.Registerer) *BatchMetrics {
	m := &BatchMetrics{
		SubBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subbatch_total",
			Help:      "Sub-batches processed, by sub-batch and outcome.",
		}, []string{"sub_batch", "outcome"}),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Items processed, by sub-batch and result.",
		}, []string{"sub_batch", "result"}),
		ExecuteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execute_duration_seconds",
			Help:      "Duration of a whole batch execution in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}

	reg.MustRegister(m.SubBatches, m.Items, m.ExecuteDuration)
	return m
}

// HTTPMetrics holds request metrics for the API listener.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code.",
		}, []string{"route", "code"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(m.Requests, m.Duration)
	return m
}
