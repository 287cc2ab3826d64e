// Package prom implements the observability hooks with Prometheus metrics.
//
// A [Collector] owns its own registry, so tests and multiple servers in one
// process never collide on registration:
//
//	c := prom.NewCollector("nodewire")
//	c.Install()                          // route all hooks to c
//	http.Handle("/metrics", c.Handler())
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/observability"
)

// Collector holds the Prometheus metrics for an editing process.
type Collector struct {
	registry *prometheus.Registry

	mutations *prometheus.CounterVec // event, result
	imports   *prometheus.CounterVec // result
	importDur prometheus.Histogram
	exports   prometheus.Counter
	layouts   *prometheus.CounterVec   // engine, result
	layoutDur *prometheus.HistogramVec // engine
	graphSize *prometheus.GaugeVec     // element

	cacheOps *prometheus.CounterVec // key_type, op

	storageOps *prometheus.CounterVec   // backend, op, result
	storageDur *prometheus.HistogramVec // backend, op

	httpRequests *prometheus.CounterVec   // method, route, status
	httpDuration *prometheus.HistogramVec // method, route
}

// NewCollector creates a collector with metrics under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Graph mutation attempts by event kind and result code.",
		}, []string{"event", "result"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Document imports by result code.",
		}, []string{"result"}),
		importDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Document import duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Document exports.",
		}),
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_runs_total",
			Help:      "Layout passes by engine and result code.",
		}, []string{"engine", "result"}),
		layoutDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Layout pass duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
		graphSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_elements",
			Help:      "Nodes and connections seen by the last import or export.",
		}, []string{"element"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache hits, misses and writes by key type.",
		}, []string{"key_type", "op"}),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Document store reads and writes by backend and result code.",
		}, []string{"backend", "op", "result"}),
		storageDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Document store operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.mutations, c.imports, c.importDur, c.exports,
		c.layouts, c.layoutDur, c.graphSize,
		c.cacheOps, c.storageOps, c.storageDur,
		c.httpRequests, c.httpDuration,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Install registers c as the editor, cache and storage hooks.
func (c *Collector) Install() {
	observability.SetEditorHooks(c)
	observability.SetCacheHooks(c)
	observability.SetStorageHooks(c)
}

// ObserveHTTP records one served request. route should be the route
// pattern, not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// result maps an error to a bounded label value.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return "error"
}

// =============================================================================
// observability.EditorHooks
// =============================================================================

func (c *Collector) OnMutation(_ context.Context, event string, err error) {
	c.mutations.WithLabelValues(event, result(err)).Inc()
}

func (c *Collector) OnImport(_ context.Context, nodes, connections int, d time.Duration, err error) {
	c.imports.WithLabelValues(result(err)).Inc()
	c.importDur.Observe(d.Seconds())
	c.graphSize.WithLabelValues("nodes").Set(float64(nodes))
	c.graphSize.WithLabelValues("connections").Set(float64(connections))
}

func (c *Collector) OnExport(_ context.Context, nodes, connections int, _ time.Duration) {
	c.exports.Inc()
	c.graphSize.WithLabelValues("nodes").Set(float64(nodes))
	c.graphSize.WithLabelValues("connections").Set(float64(connections))
}

func (c *Collector) OnLayout(_ context.Context, engine string, _ int, d time.Duration, err error) {
	c.layouts.WithLabelValues(engine, result(err)).Inc()
	c.layoutDur.WithLabelValues(engine).Observe(d.Seconds())
}

// =============================================================================
// observability.CacheHooks
// =============================================================================

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, keyType string, _ int) {
	c.cacheOps.WithLabelValues(keyType, "set").Inc()
}

// =============================================================================
// observability.StorageHooks
// =============================================================================

func (c *Collector) OnOpen(_ context.Context, backend string, _ int, d time.Duration, err error) {
	c.storageOps.WithLabelValues(backend, "open", result(err)).Inc()
	c.storageDur.WithLabelValues(backend, "open").Observe(d.Seconds())
}

func (c *Collector) OnSave(_ context.Context, backend string, _ int, d time.Duration, err error) {
	c.storageOps.WithLabelValues(backend, "save", result(err)).Inc()
	c.storageDur.WithLabelValues(backend, "save").Observe(d.Seconds())
}

var (
	_ observability.EditorHooks  = (*Collector)(nil)
	_ observability.CacheHooks   = (*Collector)(nil)
	_ observability.StorageHooks = (*Collector)(nil)
)
