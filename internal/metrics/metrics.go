package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const DefaultNamespace = "points"

// Collector owns a private registry. Each composition root builds its own,
// so tests never share counters.
type Collector struct {
	registry *prometheus.Registry

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheSwept  prometheus.Counter

	EstimatorRequests *prometheus.CounterVec
	EstimatorDuration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of estimate cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of estimate cache misses",
		}),
		CacheSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_swept_total",
			Help:      "Total number of cache entries removed by sweeps",
		}),
		EstimatorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimator_requests_total",
			Help:      "Total number of remote estimator calls",
		}, []string{"operation", "outcome"}),
		EstimatorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "estimator_request_duration_seconds",
			Help:      "Remote estimator call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(
		c.CacheHits,
		c.CacheMisses,
		c.CacheSwept,
		c.EstimatorRequests,
		c.EstimatorDuration,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.CacheHits.Inc()
}

func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.CacheMisses.Inc()
}

func (c *Collector) CacheSweep(removed int) {
	if c == nil {
		return
	}
	c.CacheSwept.Add(float64(removed))
}

// EstimatorCall records one remote call. outcome is "ok", "remote_error" or
// "schema_error".
func (c *Collector) EstimatorCall(operation, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.EstimatorRequests.WithLabelValues(operation, outcome).Inc()
	c.EstimatorDuration.WithLabelValues(operation).Observe(d.Seconds())
}

type Snapshot struct {
	CacheHits   int
	CacheMisses int
	CacheSwept  int
}

func (s Snapshot) HitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		CacheHits:   int(counterValue(c.CacheHits)),
		CacheMisses: int(counterValue(c.CacheMisses)),
		CacheSwept:  int(counterValue(c.CacheSwept)),
	}
}

func (c *Collector) EstimatorCalls(operation, outcome string) int {
	if c == nil {
		return 0
	}
	return int(counterValue(c.EstimatorRequests.WithLabelValues(operation, outcome)))
}

// WriteTextfile dumps the registry in text exposition format, for the
// node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

func counterValue(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}
