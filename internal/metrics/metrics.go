package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and the
// advisory pipeline. It satisfies advisor.Observer.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	queryTotal      *prometheus.CounterVec
	recommendTotal  *prometheus.CounterVec
}

// NewCollector constructs a collector with default histograms/counters on a
// private registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "advisor",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	queryTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "pipeline",
		Name:      "queries_total",
		Help:      "Total classified advisory queries by intent.",
	}, []string{"intent"})

	recommendTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "pipeline",
		Name:      "recommendations_total",
		Help:      "Total computed recommendations by label.",
	}, []string{"label"})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, queryTotal, recommendTotal} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		queryTotal:      queryTotal,
		recommendTotal:  recommendTotal,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveQuery counts one classified query.
func (c *Collector) ObserveQuery(intent string) {
	c.queryTotal.WithLabelValues(intent).Inc()
}

// ObserveRecommendation counts one computed recommendation.
func (c *Collector) ObserveRecommendation(label string) {
	c.recommendTotal.WithLabelValues(label).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
