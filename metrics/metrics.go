// Package metrics records HTTP request metrics in a private Prometheus
// registry and serves them on a listener separate from the application.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the registry and the request collectors.
type Recorder struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with Go runtime and process collectors registered.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hi_http_requests_total",
			Help: "Total HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hi_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	registry.MustRegister(r.requestsTotal)
	registry.MustRegister(r.requestDuration)
	return r
}

// Registry returns the Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one finished request.
func (r *Recorder) Observe(method string, code int, d time.Duration) {
	r.requestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Instrument wraps next so every request is counted and timed. The counters
// live here, outside the handlers, which keep no state of their own.
func (r *Recorder) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, req)
		r.Observe(req.Method, sw.code, time.Since(start))
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
