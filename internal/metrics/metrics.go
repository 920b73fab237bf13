// Package metrics defines the Prometheus collectors of the shopfront service.
// Every recording method is safe on a nil *Metrics so components can run without metrics.
//
// Package metrics 定义shopfront服务的Prometheus指标收集器。
// 每个记录方法在*Metrics为nil时也是安全的，因此组件可以在没有指标的情况下运行。
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yourusername/shopfront/pkg/cache"
)

const namespace = "shopfront"

// Metrics holds all collectors of the service.
//
// Metrics 保存服务的所有收集器。
type Metrics struct {
	registry prometheus.Registerer

	remoteRequests    *prometheus.CounterVec
	remoteDuration    *prometheus.HistogramVec
	degradedQueries   prometheus.Counter
	supersededQueries prometheus.Counter
	localMutations    *prometheus.CounterVec
	mirrorFailures    *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers the collectors on reg.
//
// New 在reg上注册收集器。
//
// Parameters:
//   - reg: The registerer, typically a fresh prometheus.NewRegistry()
//
// Returns:
//   - *Metrics: The collectors
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		remoteRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_requests_total",
			Help:      "Remote catalog requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		remoteDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_request_duration_seconds",
			Help:      "Remote catalog request latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11), // 10ms to ~10s
		}, []string{"endpoint"}),
		degradedQueries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_queries_total",
			Help:      "Queries answered from local records only because the catalog failed",
		}),
		supersededQueries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_queries_total",
			Help:      "Query results discarded because a newer query started",
		}),
		localMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_mutations_total",
			Help:      "Local product store mutations by operation",
		}, []string{"op"}),
		mirrorFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_failures_total",
			Help:      "Failed best-effort remote mirror writes by operation",
		}, []string{"op"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveRemote records one catalog call.
//
// ObserveRemote 记录一次目录调用。
func (m *Metrics) ObserveRemote(endpoint string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.remoteRequests.WithLabelValues(endpoint, outcome).Inc()
	m.remoteDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// IncDegraded counts a query served from local records only.
func (m *Metrics) IncDegraded() {
	if m == nil {
		return
	}
	m.degradedQueries.Inc()
}

// IncSuperseded counts a discarded stale query result.
func (m *Metrics) IncSuperseded() {
	if m == nil {
		return
	}
	m.supersededQueries.Inc()
}

// IncLocalMutation counts a create, update or delete on the local store.
func (m *Metrics) IncLocalMutation(op string) {
	if m == nil {
		return
	}
	m.localMutations.WithLabelValues(op).Inc()
}

// IncMirrorFailure counts a failed remote mirror write.
func (m *Metrics) IncMirrorFailure(op string) {
	if m == nil {
		return
	}
	m.mirrorFailures.WithLabelValues(op).Inc()
}

// ObserveHTTP records one served HTTP request.
//
// ObserveHTTP 记录一次已处理的HTTP请求。
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RegisterCache exports the statistics of a response cache as gauges labelled by name.
// Stats are read at scrape time.
//
// RegisterCache 将响应缓存的统计信息导出为按名称标记的指标。
// 统计信息在抓取时读取。
func (m *Metrics) RegisterCache(name string, c cache.ICache) error {
	if m == nil || c == nil {
		return nil
	}
	read := func(pick func(*cache.Stats) float64) func() float64 {
		return func() float64 {
			stats, err := c.Stats(context.Background())
			if err != nil || stats == nil {
				return 0
			}
			return pick(stats)
		}
	}
	labels := prometheus.Labels{"cache": name}
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_hits_total", Help: "Response cache hits", ConstLabels: labels,
		}, read(func(s *cache.Stats) float64 { return float64(s.Hits) })),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_misses_total", Help: "Response cache misses", ConstLabels: labels,
		}, read(func(s *cache.Stats) float64 { return float64(s.Misses) })),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_evictions_total", Help: "Response cache evictions", ConstLabels: labels,
		}, read(func(s *cache.Stats) float64 { return float64(s.Evictions) })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_entries", Help: "Response cache entry count", ConstLabels: labels,
		}, read(func(s *cache.Stats) float64 { return float64(s.EntryCount) })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_hit_ratio", Help: "Response cache hit ratio", ConstLabels: labels,
		}, read(func(s *cache.Stats) float64 { return s.HitRatio() })),
	}
	for _, col := range collectors {
		if err := m.registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}
