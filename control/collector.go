// control/collector.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus export of pool, queue and ring state. Values are read at scrape
// time, so the data path never touches the metrics library.

package control

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-mempool/cqueue"
	"github.com/momentics/hioload-mempool/pool"
)

// PoolCollector is a prometheus.Collector over any number of named pools,
// queues and rings.
type PoolCollector struct {
	mu     sync.RWMutex
	pools  map[string]*pool.BitmapPool
	queues map[string]*pool.PoolQueue
	rings  map[string]*cqueue.Queue

	poolBlocks    *prometheus.Desc
	poolAvailable *prometheus.Desc
	poolHWOwned   *prometheus.Desc
	poolOps       *prometheus.Desc
	queueLen      *prometheus.Desc
	queueOps      *prometheus.Desc
	ringLen       *prometheus.Desc
	ringCap       *prometheus.Desc
	ringPressure  *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector creates an empty collector. namespace prefixes every metric.
func NewPoolCollector(namespace string) *PoolCollector {
	name := func(sub, n string) string { return prometheus.BuildFQName(namespace, sub, n) }
	return &PoolCollector{
		pools:  make(map[string]*pool.BitmapPool),
		queues: make(map[string]*pool.PoolQueue),
		rings:  make(map[string]*cqueue.Queue),

		poolBlocks: prometheus.NewDesc(name("pool", "blocks"),
			"Number of blocks in the pool.", []string{"pool"}, nil),
		poolAvailable: prometheus.NewDesc(name("pool", "available_blocks"),
			"Number of free blocks.", []string{"pool"}, nil),
		poolHWOwned: prometheus.NewDesc(name("pool", "hw_owned_blocks"),
			"Number of blocks lent to hardware.", []string{"pool"}, nil),
		poolOps: prometheus.NewDesc(name("pool", "operations_total"),
			"Pool operations by kind.", []string{"pool", "op"}, nil),
		queueLen: prometheus.NewDesc(name("queue", "depth"),
			"Blocks currently queued.", []string{"queue"}, nil),
		queueOps: prometheus.NewDesc(name("queue", "operations_total"),
			"Queue operations by kind.", []string{"queue", "op"}, nil),
		ringLen: prometheus.NewDesc(name("ring", "depth"),
			"Descriptors currently queued.", []string{"ring"}, nil),
		ringCap: prometheus.NewDesc(name("ring", "capacity"),
			"Usable ring capacity.", []string{"ring"}, nil),
		ringPressure: prometheus.NewDesc(name("ring", "backpressure"),
			"1 while the ring signals backpressure.", []string{"ring"}, nil),
	}
}

// AddPool registers p under name.
func (c *PoolCollector) AddPool(name string, p *pool.BitmapPool) {
	c.mu.Lock()
	c.pools[name] = p
	c.mu.Unlock()
}

// AddQueue registers q under name.
func (c *PoolCollector) AddQueue(name string, q *pool.PoolQueue) {
	c.mu.Lock()
	c.queues[name] = q
	c.mu.Unlock()
}

// AddRing registers r under name.
func (c *PoolCollector) AddRing(name string, r *cqueue.Queue) {
	c.mu.Lock()
	c.rings[name] = r
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.poolBlocks
	ch <- c.poolAvailable
	ch <- c.poolHWOwned
	ch <- c.poolOps
	ch <- c.queueLen
	ch <- c.queueOps
	ch <- c.ringLen
	ch <- c.ringCap
	ch <- c.ringPressure
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	for name, p := range c.pools {
		s := p.Stats()
		gauge(c.poolBlocks, float64(s.BlockCount), name)
		gauge(c.poolAvailable, float64(s.Available), name)
		gauge(c.poolHWOwned, float64(s.HardwareOwned), name)
		counter(c.poolOps, s.TotalAllocs, name, "alloc")
		counter(c.poolOps, s.TotalFrees, name, "free")
		counter(c.poolOps, s.FailedAllocs, name, "alloc_failed")
		counter(c.poolOps, s.DoubleFrees, name, "double_free")
		counter(c.poolOps, s.InvalidFrees, name, "invalid_free")
	}
	for name, q := range c.queues {
		s := q.Stats()
		gauge(c.queueLen, float64(s.Len), name)
		counter(c.queueOps, s.Enqueued, name, "enqueue")
		counter(c.queueOps, s.Dequeued, name, "dequeue")
		counter(c.queueOps, s.Rejected, name, "rejected")
		counter(c.queueOps, s.Duplicates, name, "duplicate")
	}
	for name, r := range c.rings {
		s := r.Stats()
		gauge(c.ringLen, float64(s.Len), name)
		gauge(c.ringCap, float64(s.Cap), name)
		pressure := 0.0
		if s.Backpressure {
			pressure = 1
		}
		gauge(c.ringPressure, pressure, name)
	}
}
