// control/file.go
// Author: momentics <momentics@gmail.com>
//
// File-level configuration: YAML document, defaults and validation.

package control

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-mempool/api"
	"github.com/momentics/hioload-mempool/internal/arena"
)

// Config is the on-disk configuration of a pool/queue/ring pipeline.
type Config struct {
	Pool    PoolConfig    `yaml:"pool"`
	Ring    RingConfig    `yaml:"ring"`
	Flow    FlowConfig    `yaml:"flow"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// PoolConfig configures the BitmapPool and its PoolQueue.
type PoolConfig struct {
	BlockSize       int    `yaml:"block_size"`
	Blocks          int    `yaml:"blocks"`
	MaxBlocks       int    `yaml:"max_blocks"`
	Alignment       int    `yaml:"alignment"`
	Arena           string `yaml:"arena"`
	CriticalSection string `yaml:"critical_section"`
	StrictFree      bool   `yaml:"strict_free"`
	QueueCapacity   int    `yaml:"queue_capacity"`
}

// RingConfig configures the circular queue. Zero watermarks select 3*size/4
// and size/4.
type RingConfig struct {
	Size          int  `yaml:"size"`
	Backpressure  bool `yaml:"backpressure"`
	HighWatermark int  `yaml:"high_watermark"`
	LowWatermark  int  `yaml:"low_watermark"`
}

// FlowConfig configures producer-side flow control.
type FlowConfig struct {
	ThrottlePerSec float64 `yaml:"throttle_per_sec"`
	Burst          int     `yaml:"burst"`
	SpillLimit     int     `yaml:"spill_limit"`
	Credits        int     `yaml:"credits"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Pool: PoolConfig{
			BlockSize:       256,
			Blocks:          64,
			MaxBlocks:       256,
			Alignment:       64,
			Arena:           "heap",
			CriticalSection: "mutex",
			QueueCapacity:   64,
		},
		Ring: RingConfig{
			Size:         8,
			Backpressure: true,
		},
		Flow: FlowConfig{
			ThrottlePerSec: 0,
			Burst:          1,
			SpillLimit:     64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "hiopool",
		},
	}
}

// LoadConfig reads path over the defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("control: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("control: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("control: config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(field string, value any, why string) {
		errs = append(errs, api.NewError(api.ErrCodeInvalidArgument, field+": "+why).WithContext("value", value))
	}

	p := c.Pool
	if p.BlockSize < 0 {
		bad("pool.block_size", p.BlockSize, "must not be negative")
	}
	if p.MaxBlocks <= 0 || p.MaxBlocks > 1<<16 {
		bad("pool.max_blocks", p.MaxBlocks, "must be in [1, 65536]")
	}
	if p.Blocks <= 0 || p.Blocks > p.MaxBlocks {
		bad("pool.blocks", p.Blocks, "must be in [1, max_blocks]")
	}
	if !isPow2(p.Alignment) {
		bad("pool.alignment", p.Alignment, "must be a power of two")
	}
	if _, err := arena.ParseKind(p.Arena); err != nil {
		bad("pool.arena", p.Arena, "must be heap, mapped or pinned")
	}
	switch p.CriticalSection {
	case "", "mutex", "spin", "noop":
	default:
		bad("pool.critical_section", p.CriticalSection, "must be mutex, spin or noop")
	}
	if p.QueueCapacity < 0 || p.QueueCapacity > p.Blocks {
		bad("pool.queue_capacity", p.QueueCapacity, "must be in [0, blocks]")
	}

	r := c.Ring
	if r.Size < 2 || !isPow2(r.Size) {
		bad("ring.size", r.Size, "must be a power of two >= 2")
	}
	high, low := r.Watermarks()
	if low < 0 || low >= high || high > r.Size {
		bad("ring.watermarks", [2]int{high, low}, "must satisfy 0 <= low < high <= size")
	}

	if c.Flow.ThrottlePerSec < 0 {
		bad("flow.throttle_per_sec", c.Flow.ThrottlePerSec, "must not be negative")
	}
	if c.Flow.SpillLimit < 0 {
		bad("flow.spill_limit", c.Flow.SpillLimit, "must not be negative")
	}
	if c.Flow.Credits < 0 {
		bad("flow.credits", c.Flow.Credits, "must not be negative")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		bad("log.level", c.Log.Level, "must be debug, info, warning or error")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		bad("log.format", c.Log.Format, "must be text or json")
	}
	return errors.Join(errs...)
}

// Watermarks resolves zero thresholds to their defaults.
func (r RingConfig) Watermarks() (high, low int) {
	high, low = r.HighWatermark, r.LowWatermark
	if high == 0 && low == 0 {
		return r.Size * 3 / 4, r.Size / 4
	}
	return high, low
}

// Flatten renders the config as dotted keys for the ConfigStore.
func (c Config) Flatten() map[string]any {
	high, low := c.Ring.Watermarks()
	return map[string]any{
		"pool.block_size":       c.Pool.BlockSize,
		"pool.blocks":           c.Pool.Blocks,
		"pool.max_blocks":       c.Pool.MaxBlocks,
		"pool.alignment":        c.Pool.Alignment,
		"pool.arena":            c.Pool.Arena,
		"pool.critical_section": c.Pool.CriticalSection,
		"pool.strict_free":      c.Pool.StrictFree,
		"pool.queue_capacity":   c.Pool.QueueCapacity,
		"ring.size":             c.Ring.Size,
		"ring.backpressure":     c.Ring.Backpressure,
		"ring.high_watermark":   high,
		"ring.low_watermark":    low,
		"flow.throttle_per_sec": c.Flow.ThrottlePerSec,
		"flow.burst":            c.Flow.Burst,
		"flow.spill_limit":      c.Flow.SpillLimit,
		"flow.credits":          c.Flow.Credits,
		"log.level":             c.Log.Level,
		"log.format":            c.Log.Format,
		"metrics.addr":          c.Metrics.Addr,
	}
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }
