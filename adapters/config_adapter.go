// File: adapters/config_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Builds pools, queues and rings from file-level configuration.

package adapters

import (
	"fmt"
	"log/slog"

	"github.com/momentics/hioload-mempool/control"
	"github.com/momentics/hioload-mempool/cqueue"
	"github.com/momentics/hioload-mempool/internal/arena"
	"github.com/momentics/hioload-mempool/pool"
)

// PoolOptions translates cfg into pool options.
func PoolOptions(cfg control.PoolConfig, log *slog.Logger) ([]pool.Option, error) {
	kind, err := arena.ParseKind(cfg.Arena)
	if err != nil {
		return nil, err
	}
	cs, err := SectionByName(cfg.CriticalSection)
	if err != nil {
		return nil, err
	}
	opts := []pool.Option{
		pool.WithArena(kind),
		pool.WithCriticalSection(cs),
	}
	if cfg.MaxBlocks > 0 {
		opts = append(opts, pool.WithMaxBlocks(cfg.MaxBlocks))
	}
	if cfg.Alignment > 0 {
		opts = append(opts, pool.WithAlignment(cfg.Alignment))
	}
	if cfg.StrictFree {
		opts = append(opts, pool.WithStrictFree())
	}
	if log != nil {
		opts = append(opts, pool.WithLogger(log))
	}
	return opts, nil
}

// NewPool creates a pool and, when QueueCapacity is positive, its queue.
func NewPool(name string, cfg control.PoolConfig, log *slog.Logger) (*pool.BitmapPool, *pool.PoolQueue, error) {
	opts, err := PoolOptions(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("pool %s: %w", name, err)
	}
	opts = append(opts, pool.WithName(name))
	p, err := pool.New(cfg.BlockSize, cfg.Blocks, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("pool %s: %w", name, err)
	}
	if cfg.QueueCapacity <= 0 {
		return p, nil, nil
	}
	q, err := pool.NewQueue(p, cfg.QueueCapacity)
	if err != nil {
		_ = p.Close()
		return nil, nil, fmt.Errorf("pool %s queue: %w", name, err)
	}
	return p, q, nil
}

// NewRing creates a circular queue from cfg.
func NewRing(cfg control.RingConfig, log *slog.Logger) (*cqueue.Queue, error) {
	high, low := cfg.Watermarks()
	opts := []cqueue.Option{
		cqueue.WithBackpressure(cfg.Backpressure),
		cqueue.WithWatermarks(high, low),
	}
	if log != nil {
		opts = append(opts, cqueue.WithLogger(log))
	}
	return cqueue.New(cfg.Size, opts...)
}
