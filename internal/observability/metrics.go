// Package observability exposes the panel's Prometheus metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	gateDecisions   *prometheus.CounterVec
	deployTriggers  *prometheus.CounterVec
	auditFailures   prometheus.Counter
}

// NewMetrics initialises the registry and every panel metric.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adminpanel_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adminpanel_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	gate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adminpanel_gate_decisions_total",
		Help: "Access gate decisions by route class and outcome.",
	}, []string{"class", "outcome"})
	deploys := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adminpanel_deploy_triggers_total",
		Help: "Deploy trigger attempts by result.",
	}, []string{"result"})
	auditFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adminpanel_audit_failures_total",
		Help: "Audit entries that could not be delivered.",
	})
	registry.MustRegister(
		requests, duration, gate, deploys, auditFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		gateDecisions:   gate,
		deployTriggers:  deploys,
		auditFailures:   auditFailures,
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

// Middleware records request count and latency per route.
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

// GateDecision counts one gate outcome.
func (m *Metrics) GateDecision(class, outcome string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(class, outcome).Inc()
}

// DeployTrigger counts one deploy attempt.
func (m *Metrics) DeployTrigger(result string) {
	if m == nil {
		return
	}
	m.deployTriggers.WithLabelValues(result).Inc()
}

// AuditFailure counts one dropped audit entry.
func (m *Metrics) AuditFailure() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}

// Registerer exposes the registry for custom metrics.
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
	return "unknown"
}
