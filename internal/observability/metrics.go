package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every spacebio metric.
const Namespace = "spacebio"

// Metrics contains the Prometheus metrics for the spacebio server.
// They are registered on the registry passed to NewMetrics, never on the
// global default registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequests counts served requests by method, route pattern and status code.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration observes request latency in seconds by method and route pattern.
	HTTPDuration *prometheus.HistogramVec

	// Searches counts searches by type (keyword, semantic) and outcome.
	Searches *prometheus.CounterVec

	// SearchResults observes the number of results returned per search type.
	SearchResults *prometheus.HistogramVec

	// ProviderRequests counts embedding provider calls by outcome (ok, error, timeout).
	ProviderRequests *prometheus.CounterVec

	// ProviderDuration observes embedding provider latency in seconds.
	ProviderDuration prometheus.Histogram

	// CentralityDuration observes centrality computation time in seconds by kind.
	CentralityDuration *prometheus.HistogramVec

	// Snapshot sizes, set once at load.
	Publications prometheus.Gauge
	Embeddings   prometheus.Gauge
	GraphNodes   prometheus.Gauge
	GraphEdges   prometheus.Gauge
}

// NewMetrics creates a Metrics instance backed by a fresh registry that also
// carries the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "searches_total",
			Help:      "Total number of searches by type and outcome",
		}, []string{"type", "outcome"}),
		SearchResults: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}, []string{"type"}),
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Total number of embedding provider requests by outcome",
		}, []string{"outcome"}),
		ProviderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "embedding",
			Name:      "request_duration_seconds",
			Help:      "Embedding provider latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CentralityDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "graph",
			Name:      "centrality_duration_seconds",
			Help:      "Centrality computation time in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"kind"}),
		Publications: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "publications",
			Help:      "Publications in the loaded snapshot",
		}),
		Embeddings: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "embeddings",
			Help:      "Embeddings in the loaded snapshot",
		}),
		GraphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Nodes in the knowledge graph",
		}),
		GraphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Edges in the knowledge graph",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest records a served HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordSearch records a completed or failed search.
func (m *Metrics) RecordSearch(searchType string, results int, err error) {
	if err != nil {
		m.Searches.WithLabelValues(searchType, "error").Inc()
		return
	}
	m.Searches.WithLabelValues(searchType, "ok").Inc()
	m.SearchResults.WithLabelValues(searchType).Observe(float64(results))
}

// RecordProvider records an embedding provider call. outcome is ok, error or timeout.
func (m *Metrics) RecordProvider(outcome string, elapsed time.Duration) {
	m.ProviderRequests.WithLabelValues(outcome).Inc()
	m.ProviderDuration.Observe(elapsed.Seconds())
}

// RecordCentrality records the time spent computing a centrality measure.
func (m *Metrics) RecordCentrality(kind string, elapsed time.Duration) {
	m.CentralityDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// SetSnapshot publishes the sizes of a loaded snapshot.
func (m *Metrics) SetSnapshot(publications, embeddings, nodes, edges int) {
	m.Publications.Set(float64(publications))
	m.Embeddings.Set(float64(embeddings))
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}
