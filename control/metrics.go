// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics registry for pools, queues and rings.
// Exposes values in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"

	"github.com/momentics/hioload-mempool/api"
)

// MetricsRegistry holds the latest published metric values.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// PublishPool records pool counters under prefix.
func (mr *MetricsRegistry) PublishPool(prefix string, s api.PoolStats) {
	mr.mu.Lock()
	mr.metrics[prefix+".available"] = s.Available
	mr.metrics[prefix+".used"] = s.Used
	mr.metrics[prefix+".hw_owned"] = s.HardwareOwned
	mr.metrics[prefix+".allocs"] = s.TotalAllocs
	mr.metrics[prefix+".frees"] = s.TotalFrees
	mr.metrics[prefix+".failed_allocs"] = s.FailedAllocs
	mr.metrics[prefix+".double_frees"] = s.DoubleFrees
	mr.metrics[prefix+".invalid_frees"] = s.InvalidFrees
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// PublishQueue records queue counters under prefix.
func (mr *MetricsRegistry) PublishQueue(prefix string, s api.QueueStats) {
	mr.mu.Lock()
	mr.metrics[prefix+".len"] = s.Len
	mr.metrics[prefix+".enqueued"] = s.Enqueued
	mr.metrics[prefix+".dequeued"] = s.Dequeued
	mr.metrics[prefix+".rejected"] = s.Rejected
	mr.metrics[prefix+".duplicates"] = s.Duplicates
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// PublishRing records ring state under prefix.
func (mr *MetricsRegistry) PublishRing(prefix string, s api.RingStats) {
	mr.mu.Lock()
	mr.metrics[prefix+".len"] = s.Len
	mr.metrics[prefix+".backpressure"] = s.Backpressure
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last write.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
