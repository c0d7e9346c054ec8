package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry and the service's collectors.
type Metrics struct {
	registry        *prometheus.Registry
	recommendations *prometheus.CounterVec
	generations     *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supplementer_recommendations_total",
				Help: "Recommendation requests served, by match outcome.",
			},
			[]string{"outcome"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supplementer_generations_total",
				Help: "Language model generations, by provider and result.",
			},
			[]string{"provider", "result"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "supplementer_http_request_duration_seconds",
				Help:    "Histogram of response latency (seconds) for HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "code"},
		),
	}
	m.registry.MustRegister(
		m.recommendations,
		m.generations,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRecommendation counts a served request. outcome is "matched" or "no_match".
func (m *Metrics) ObserveRecommendation(matched bool) {
	outcome := "no_match"
	if matched {
		outcome = "matched"
	}
	m.recommendations.WithLabelValues(outcome).Inc()
}

// ObserveGeneration counts a model call. result is "ok", "cached" or "error".
func (m *Metrics) ObserveGeneration(provider, result string) {
	m.generations.WithLabelValues(provider, result).Inc()
}

// Middleware records request latency labelled by the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
