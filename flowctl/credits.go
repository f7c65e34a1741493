// File: flowctl/credits.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package flowctl

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Credits bounds the number of blocks a producer holds at once, so it parks
// on a context-aware wait instead of spinning on an exhausted pool. A nil
// *Credits is unlimited.
type Credits struct {
	sem *semaphore.Weighted
	max int64
}

// NewCredits returns a budget of n outstanding blocks. n <= 0 returns nil.
func NewCredits(n int) *Credits {
	if n <= 0 {
		return nil
	}
	return &Credits{sem: semaphore.NewWeighted(int64(n)), max: int64(n)}
}

// Acquire takes n credits, blocking until available or ctx is done.
func (c *Credits) Acquire(ctx context.Context, n int) error {
	if c == nil || n <= 0 {
		return nil
	}
	return c.sem.Acquire(ctx, int64(n))
}

// TryAcquire takes n credits without blocking.
func (c *Credits) TryAcquire(n int) bool {
	if c == nil || n <= 0 {
		return true
	}
	return c.sem.TryAcquire(int64(n))
}

// Release returns n credits.
func (c *Credits) Release(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.sem.Release(int64(n))
}

// Max returns the budget size; zero means unlimited.
func (c *Credits) Max() int {
	if c == nil {
		return 0
	}
	return int(c.max)
}
