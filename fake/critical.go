// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"
	"sync/atomic"
)

// CountingSection is a mutex-backed api.CriticalSection that records how often
// it was entered and exited.
type CountingSection struct {
	mu     sync.Mutex
	enters atomic.Int64
	exits  atomic.Int64
}

func (c *CountingSection) Enter() {
	c.mu.Lock()
	c.enters.Add(1)
}

func (c *CountingSection) Exit() {
	c.exits.Add(1)
	c.mu.Unlock()
}

// Enters returns the number of Enter calls so far.
func (c *CountingSection) Enters() int64 { return c.enters.Load() }

// Exits returns the number of Exit calls so far.
func (c *CountingSection) Exits() int64 { return c.exits.Load() }

// Balanced reports whether every Enter has been matched by an Exit.
func (c *CountingSection) Balanced() bool { return c.enters.Load() == c.exits.Load() }

// Reset zeroes the counters. Call only while no goroutine is inside.
func (c *CountingSection) Reset() {
	c.enters.Store(0)
	c.exits.Store(0)
}
