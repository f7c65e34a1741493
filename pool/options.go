// File: pool/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"log/slog"

	"github.com/momentics/hioload-mempool/api"
	"github.com/momentics/hioload-mempool/internal/arena"
)

const (
	// DefaultAlignment is the block and arena alignment: one cache line, and
	// the granularity most DMA descriptors require.
	DefaultAlignment = 64
	// DefaultMaxBlocks caps numBlocks unless WithMaxBlocks raises it.
	DefaultMaxBlocks = 256
	// HardMaxBlocks is the ceiling for any pool; PoolQueue stores indices as uint16.
	HardMaxBlocks = 1 << 16
)

type config struct {
	alignment  int
	maxBlocks  int
	arenaKind  arena.Kind
	cs         api.CriticalSection
	logger     *slog.Logger
	strictFree bool
	name       string
}

func defaultConfig() config {
	return config{
		alignment: DefaultAlignment,
		maxBlocks: DefaultMaxBlocks,
		arenaKind: arena.KindHeap,
	}
}

// Option configures a BitmapPool.
type Option func(*config)

// WithAlignment overrides the block alignment. Must be a power of two.
func WithAlignment(n int) Option {
	return func(c *config) { c.alignment = n }
}

// WithMaxBlocks raises or lowers the block-count limit enforced by New.
// Values above HardMaxBlocks are rejected by New.
func WithMaxBlocks(n int) Option {
	return func(c *config) { c.maxBlocks = n }
}

// WithArena selects the arena backing store.
func WithArena(k arena.Kind) Option {
	return func(c *config) { c.arenaKind = k }
}

// WithCriticalSection injects the section bracketing every bitmap mutation.
// The default is a mutex.
func WithCriticalSection(cs api.CriticalSection) Option {
	return func(c *config) { c.cs = cs }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStrictFree makes freeing an already-free block return api.ErrDoubleFree
// instead of being ignored.
func WithStrictFree() Option {
	return func(c *config) { c.strictFree = true }
}

// WithName labels the pool in logs and metrics.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// QueueOption configures a PoolQueue.
type QueueOption func(*queueConfig)

type queueConfig struct {
	cs     api.CriticalSection
	logger *slog.Logger
}

// WithQueueCriticalSection gives the queue its own section. By default the
// queue shares the section of its pool.
func WithQueueCriticalSection(cs api.CriticalSection) QueueOption {
	return func(c *queueConfig) { c.cs = cs }
}

// WithQueueLogger sets the queue's logger; the pool's logger is used otherwise.
func WithQueueLogger(l *slog.Logger) QueueOption {
	return func(c *queueConfig) { c.logger = l }
}
