package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the cluster coordinator
type Metrics struct {
	// Data path metrics
	WriteRequestsTotal  prometheus.Counter
	WriteDuration       prometheus.Histogram
	ReplicaWritesTotal  prometheus.Counter
	PartialWritesTotal  prometheus.Counter
	ReadRequestsTotal   prometheus.Counter
	ReadMissesTotal     prometheus.Counter
	ReadDuration        prometheus.Histogram
	DeleteRequestsTotal prometheus.Counter
	PrefixQueriesTotal  prometheus.Counter
	PrefixQueryDuration prometheus.Histogram

	// Rebalance metrics
	RebalanceRunsTotal    prometheus.Counter
	RebalanceDuration     prometheus.Histogram
	KeysExaminedTotal     prometheus.Counter
	ReplicasFilledTotal   prometheus.Counter
	ReplicasEvictedTotal  prometheus.Counter

	// Topology metrics
	RingNodesTotal prometheus.Gauge

	// System metrics
	MemoryUsageBytes prometheus.Gauge
	GoroutinesTotal  prometheus.Gauge
}

// NewMetrics creates all cluster metrics and registers them with the
// given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WriteRequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "write_requests_total",
			Help:      "Total number of put requests",
		}),
		WriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "write_duration_seconds",
			Help:      "Histogram of put request durations",
			Buckets:   prometheus.DefBuckets,
		}),
		ReplicaWritesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "replica_writes_total",
			Help:      "Total number of node-local writes issued by puts",
		}),
		PartialWritesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "partial_writes_total",
			Help:      "Total number of puts that failed on at least one owner",
		}),
		ReadRequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "read_requests_total",
			Help:      "Total number of get requests",
		}),
		ReadMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "read_misses_total",
			Help:      "Total number of gets that found no value on any owner",
		}),
		ReadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "read_duration_seconds",
			Help:      "Histogram of get request durations",
			Buckets:   prometheus.DefBuckets,
		}),
		DeleteRequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "delete_requests_total",
			Help:      "Total number of delete requests",
		}),
		PrefixQueriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "prefix_queries_total",
			Help:      "Total number of scatter-gather prefix count queries",
		}),
		PrefixQueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ringkv",
			Subsystem: "cluster",
			Name:      "prefix_query_duration_seconds",
			Help:      "Histogram of scatter-gather prefix query durations",
			Buckets:   prometheus.DefBuckets,
		}),
		RebalanceRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "rebalance",
			Name:      "runs_total",
			Help:      "Total number of rebalance runs",
		}),
		RebalanceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ringkv",
			Subsystem: "rebalance",
			Name:      "duration_seconds",
			Help:      "Histogram of rebalance run durations",
			Buckets:   prometheus.DefBuckets,
		}),
		KeysExaminedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "rebalance",
			Name:      "keys_examined_total",
			Help:      "Total number of distinct keys examined by rebalance runs",
		}),
		ReplicasFilledTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "rebalance",
			Name:      "replicas_filled_total",
			Help:      "Total number of missing replicas filled by rebalance runs",
		}),
		ReplicasEvictedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ringkv",
			Subsystem: "rebalance",
			Name:      "replicas_evicted_total",
			Help:      "Total number of stale replicas evicted by rebalance runs",
		}),
		RingNodesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ringkv",
			Subsystem: "ring",
			Name:      "nodes_total",
			Help:      "Current number of physical nodes on the hash ring",
		}),
		MemoryUsageBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ringkv",
			Subsystem: "system",
			Name:      "memory_usage_bytes",
			Help:      "Current memory usage in bytes",
		}),
		GoroutinesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ringkv",
			Subsystem: "system",
			Name:      "goroutines_total",
			Help:      "Current number of goroutines",
		}),
	}
}

// RecordWrite records metrics for a successful put
func (m *Metrics) RecordWrite(duration float64, replicas int) {
	m.WriteRequestsTotal.Inc()
	m.WriteDuration.Observe(duration)
	m.ReplicaWritesTotal.Add(float64(replicas))
}

// RecordPartialWrite records a put that failed on at least one owner
func (m *Metrics) RecordPartialWrite() {
	m.WriteRequestsTotal.Inc()
	m.PartialWritesTotal.Inc()
}

// RecordRead records metrics for a get
func (m *Metrics) RecordRead(duration float64, found bool) {
	m.ReadRequestsTotal.Inc()
	m.ReadDuration.Observe(duration)
	if !found {
		m.ReadMissesTotal.Inc()
	}
}

// RecordDelete records a delete request
func (m *Metrics) RecordDelete() {
	m.DeleteRequestsTotal.Inc()
}

// RecordPrefixQuery records a scatter-gather prefix query
func (m *Metrics) RecordPrefixQuery(duration float64) {
	m.PrefixQueriesTotal.Inc()
	m.PrefixQueryDuration.Observe(duration)
}

// RecordRebalance records metrics for a completed rebalance run
func (m *Metrics) RecordRebalance(duration float64, keysExamined, replicasFilled, replicasEvicted int) {
	m.RebalanceRunsTotal.Inc()
	m.RebalanceDuration.Observe(duration)
	m.KeysExaminedTotal.Add(float64(keysExamined))
	m.ReplicasFilledTotal.Add(float64(replicasFilled))
	m.ReplicasEvictedTotal.Add(float64(replicasEvicted))
}

// SetRingNodes updates the ring node count gauge
func (m *Metrics) SetRingNodes(count int) {
	m.RingNodesTotal.Set(float64(count))
}

// UpdateSystemStats updates system-level statistics
func (m *Metrics) UpdateSystemStats(memoryUsage int64, goroutines int) {
	m.MemoryUsageBytes.Set(float64(memoryUsage))
	m.GoroutinesTotal.Set(float64(goroutines))
}
