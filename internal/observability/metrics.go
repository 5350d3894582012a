package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reconRuns       *prometheus.CounterVec
	mirrorFailures  prometheus.Counter
	sourceDegraded  prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chaiyo_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chaiyo_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reconRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chaiyo_recon_runs_total",
		Help: "Reconciliation runs by outcome.",
	}, []string{"outcome"})
	mirrorFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chaiyo_recon_mirror_failures_total",
		Help: "Best-effort legacy mirror writes that failed.",
	})
	sourceDegraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chaiyo_debt_source_degraded_total",
		Help: "Integrated list requests served with a degraded source.",
	})
	registry.MustRegister(requests, duration, reconRuns, mirrorFailures, sourceDegraded)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		reconRuns:       reconRuns,
		mirrorFailures:  mirrorFailures,
		sourceDegraded:  sourceDegraded,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveReconRun counts a reconciliation run by outcome.
func (m *Metrics) ObserveReconRun(outcome string) {
	if m == nil {
		return
	}
	m.reconRuns.WithLabelValues(outcome).Inc()
}

// ObserveMirrorFailure counts a failed legacy mirror write.
func (m *Metrics) ObserveMirrorFailure() {
	if m == nil {
		return
	}
	m.mirrorFailures.Inc()
}

// ObserveSourceDegraded counts a list response with a missing source segment.
func (m *Metrics) ObserveSourceDegraded() {
	if m == nil {
		return
	}
	m.sourceDegraded.Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
