// Package observability bundles the Prometheus metrics and OpenTelemetry
// tracing setup shared by the HTTP layer and the services.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the engine exports. All collectors live
// on a private registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	GraphQueries       *prometheus.CounterVec
	GraphQueryDuration *prometheus.HistogramVec

	SearchQueries        *prometheus.CounterVec
	SearchSourceFailures *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "synapse_http_requests_total",
			Help: "HTTP requests by method, route and status class.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "synapse_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		GraphQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "synapse_graph_queries_total",
			Help: "Graph read operations by operation and outcome.",
		}, []string{"operation", "status"}),
		GraphQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "synapse_graph_query_duration_seconds",
			Help:    "Graph read operation latency.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		SearchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "synapse_search_queries_total",
			Help: "Hybrid search queries by classified query type.",
		}, []string{"query_type"}),
		SearchSourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "synapse_search_source_failures_total",
			Help: "Search source calls that failed and were dropped from fusion.",
		}, []string{"source"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GraphQueries,
		m.GraphQueryDuration,
		m.SearchQueries,
		m.SearchSourceFailures,
	)
	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGraphQuery records one graph read operation.
func (m *Metrics) ObserveGraphQuery(operation string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.GraphQueries.WithLabelValues(operation, status).Inc()
	m.GraphQueryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
