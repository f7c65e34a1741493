// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"log/slog"

	"github.com/momentics/hioload-mempool/api"
	"github.com/momentics/hioload-mempool/control"
	"github.com/momentics/hioload-mempool/cqueue"
	"github.com/momentics/hioload-mempool/pool"
)

type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

var _ api.Control = (*ControlAdapter)(nil)

func NewControlAdapter() *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}

// ApplyFile loads, validates and applies a YAML configuration file, then
// runs the process-wide reload hooks. An invalid file changes nothing.
func (c *ControlAdapter) ApplyFile(path string, log *slog.Logger) (control.Config, error) {
	return control.ReloadFromFile(path, c.config, log)
}

// Stats merges config, metrics and probe output into one map.
func (c *ControlAdapter) Stats() map[string]any {
	combined := c.config.GetSnapshot()
	for k, v := range c.metrics.GetSnapshot() {
		combined[k] = v
	}
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
	control.RegisterReloadHook(fn)
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// Watch registers probes for the given components. Nil arguments are skipped.
func (c *ControlAdapter) Watch(name string, p *pool.BitmapPool, q *pool.PoolQueue, r *cqueue.Queue) {
	if p != nil {
		control.RegisterPoolProbes(c.debug, name, p)
	}
	if q != nil {
		control.RegisterQueueProbes(c.debug, name, q)
	}
	if r != nil {
		control.RegisterRingProbes(c.debug, name, r)
	}
}

// Publish copies current component counters into the metrics registry.
func (c *ControlAdapter) Publish(name string, p *pool.BitmapPool, q *pool.PoolQueue, r *cqueue.Queue) {
	if p != nil {
		c.metrics.PublishPool("pool."+name, p.Stats())
	}
	if q != nil {
		c.metrics.PublishQueue("queue."+name, q.Stats())
	}
	if r != nil {
		c.metrics.PublishRing("ring."+name, r.Stats())
	}
}
