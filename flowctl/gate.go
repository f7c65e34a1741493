// File: flowctl/gate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package flowctl

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/momentics/hioload-mempool/api"
)

// Gate throttles a producer while signal reports backpressure. With the
// signal clear, Wait returns immediately.
type Gate struct {
	signal    api.BackpressureSignal
	limiter   *rate.Limiter
	throttled atomic.Uint64
}

// NewGate limits the producer to perSec operations (with the given burst)
// while signal is raised. perSec <= 0 never throttles.
func NewGate(signal api.BackpressureSignal, perSec float64, burst int) *Gate {
	limit := rate.Limit(perSec)
	if perSec <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Gate{
		signal:  signal,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Wait blocks until the producer may proceed or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil || g.signal == nil || !g.signal.Backpressure() {
		return nil
	}
	g.throttled.Add(1)
	return g.limiter.Wait(ctx)
}

// Allow is the non-blocking form of Wait.
func (g *Gate) Allow() bool {
	if g == nil || g.signal == nil || !g.signal.Backpressure() {
		return true
	}
	if g.limiter.Allow() {
		return true
	}
	g.throttled.Add(1)
	return false
}

// Throttled returns how often the gate engaged.
func (g *Gate) Throttled() uint64 {
	return g.throttled.Load()
}
