// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"errors"
	"fmt"
	"sync"

	"github.com/momentics/hioload-mempool/api"
)

// ErrRingFull and ErrRingEmpty are returned by Ring.
var (
	ErrRingFull  = fmt.Errorf("fake ring: full: %w", api.ErrResourceExhausted)
	ErrRingEmpty = errors.New("fake ring: empty")
)

// Payload is one descriptor held by Ring.
type Payload struct {
	Addr uintptr
	N    int
}

// Ring is an api.PayloadRing with a fixed capacity and a backpressure flag the
// test sets directly.
type Ring struct {
	mu       sync.Mutex
	items    []Payload
	capacity int
	pressure bool
}

// NewRing returns a ring holding at most capacity descriptors.
func NewRing(capacity int) *Ring { return &Ring{capacity: capacity} }

func (r *Ring) Enqueue(addr uintptr, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) >= r.capacity {
		return ErrRingFull
	}
	r.items = append(r.items, Payload{Addr: addr, N: n})
	return nil
}

func (r *Ring) Dequeue() (uintptr, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return 0, 0, ErrRingEmpty
	}
	p := r.items[0]
	r.items = r.items[1:]
	return p.Addr, p.N, nil
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Ring) Cap() int { return r.capacity }

func (r *Ring) Backpressure() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pressure
}

// SetBackpressure forces the flag reported by Backpressure.
func (r *Ring) SetBackpressure(on bool) {
	r.mu.Lock()
	r.pressure = on
	r.mu.Unlock()
}

// Drain returns and removes everything queued.
func (r *Ring) Drain() []Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}
