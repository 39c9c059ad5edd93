package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/reqgraph/pkg/observability"
)

const namespace = "reqgraph"

// Metrics implements the observability hooks on top of Prometheus
// collectors and serves them on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	resolveRuns     prometheus.Counter
	resolveDuration prometheus.Histogram
	resolveNodes    prometheus.Histogram
	fetchFailures   prometheus.Counter
	viewsBuilt      *prometheus.CounterVec

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec

	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
}

var (
	_ observability.ResolveHooks = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
	_ observability.HTTPHooks    = (*Metrics)(nil)
)

// NewMetrics creates the collectors on reg. A nil registry gets a fresh one
// with the Go runtime and process collectors.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		resolveRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_runs_total",
			Help:      "Dependency resolution runs.",
		}),
		resolveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Wall time of dependency resolution runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		resolveNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_nodes",
			Help:      "Nodes in resolved graphs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
		fetchFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Package lookups that failed and were kept without dependencies.",
		}),
		viewsBuilt: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_built_total",
			Help:      "Level views derived, by view.",
		}, []string{"view"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes, by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache, by key type.",
		}, []string{"key_type"}),
		upstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Registry HTTP responses, by host and status.",
		}, []string{"host", "status"}),
		upstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Registry HTTP latency, by host.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		upstreamErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Registry HTTP transport failures, by host.",
		}, []string{"host"}),
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "API requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
		apiDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Register installs m as the process-wide observability hooks.
func (m *Metrics) Register() {
	observability.SetResolveHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) OnResolveStart(context.Context, []string) { m.resolveRuns.Inc() }

func (m *Metrics) OnResolveComplete(_ context.Context, _ []string, nodeCount, _ int, d time.Duration) {
	m.resolveDuration.Observe(d.Seconds())
	m.resolveNodes.Observe(float64(nodeCount))
}

func (m *Metrics) OnFetchFailed(context.Context, string, error) { m.fetchFailures.Inc() }

func (m *Metrics) OnViewBuilt(_ context.Context, view string, _, _ int) {
	m.viewsBuilt.WithLabelValues(view).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, statusCode int, d time.Duration) {
	m.upstreamRequests.WithLabelValues(host, strconv.Itoa(statusCode)).Inc()
	m.upstreamDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.upstreamErrors.WithLabelValues(host).Inc()
}

func (m *Metrics) observeAPI(route, method string, status int, d time.Duration) {
	m.apiRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.apiDuration.WithLabelValues(route).Observe(d.Seconds())
}
