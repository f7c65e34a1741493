// File: cqueue/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SPSC ring of payload descriptors with one slot sacrificed to tell full from
// empty using only head and tail. Exactly one goroutine may call the producer
// methods (Enqueue, EnqueueBytes) and exactly one the consumer method (Dequeue).

package cqueue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-mempool/api"
)

var (
	// ErrFull is returned by Enqueue when size-1 descriptors are queued.
	ErrFull = fmt.Errorf("cqueue: full: %w", api.ErrResourceExhausted)
	// ErrEmpty is returned by Dequeue when nothing is queued.
	ErrEmpty = errors.New("cqueue: empty")
)

// State is the fullness of the ring as derived from head and tail.
type State int

const (
	StateEmpty State = iota
	StatePartial
	StateFull
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePartial:
		return "partial"
	case StateFull:
		return "full"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Queue is a bounded SPSC ring of (address, length) descriptors. Addresses are
// opaque: the queue neither dereferences them nor keeps their targets alive.
type Queue struct {
	addrs []uintptr
	lens  []int
	mask  uint32

	head atomic.Uint32 // written by the consumer
	_    [60]byte
	tail atomic.Uint32 // written by the producer
	_    [60]byte

	backpressure atomic.Bool
	bpEnabled    bool
	high, low    int

	mem []byte
	log *slog.Logger
}

var _ api.PayloadRing = (*Queue)(nil)

// NewStatic builds a queue over mem, which must hold NeededMemSize(size)
// bytes and must outlive the queue.
func NewStatic(mem []byte, size int, opts ...Option) (*Queue, error) {
	if err := validSize(size); err != nil {
		return nil, err
	}
	if len(mem) < NeededMemSize(size) {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "cqueue: buffer too small").
			WithContext("have", len(mem)).
			WithContext("need", NeededMemSize(size))
	}

	cfg := config{
		backpressure: true,
		high:         size * 3 / 4,
		low:          size / 4,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.low < 0 || cfg.low >= cfg.high || cfg.high > size {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "cqueue: watermarks must satisfy 0 <= low < high <= size").
			WithContext("low", cfg.low).
			WithContext("high", cfg.high).
			WithContext("size", size)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	addrs, lens := carve(mem, size)
	return &Queue{
		addrs:     addrs,
		lens:      lens,
		mask:      uint32(size - 1),
		bpEnabled: cfg.backpressure,
		high:      cfg.high,
		low:       cfg.low,
		mem:       mem,
		log:       cfg.logger,
	}, nil
}

// New allocates exactly NeededMemSize(size) bytes and builds a queue over
// them. A zero size selects DefaultSize.
func New(size int, opts ...Option) (*Queue, error) {
	if size == 0 {
		size = DefaultSize
	}
	if err := validSize(size); err != nil {
		return nil, err
	}
	return NewStatic(make([]byte, NeededMemSize(size)), size, opts...)
}

// Enqueue appends a descriptor. When the ring is full it raises backpressure
// and returns ErrFull.
func (q *Queue) Enqueue(addr uintptr, n int) error {
	tail := q.tail.Load()
	next := (tail + 1) & q.mask
	if next == q.head.Load() {
		q.raise(q.Cap())
		return ErrFull
	}
	q.addrs[tail] = addr
	q.lens[tail] = n
	q.tail.Store(next)

	if q.bpEnabled {
		if used := int((next - q.head.Load()) & q.mask); used >= q.high {
			q.raise(used)
		}
	}
	return nil
}

// EnqueueBytes enqueues the address and length of b. The caller keeps b
// reachable until it is dequeued.
func (q *Queue) EnqueueBytes(b []byte) error {
	return q.Enqueue(uintptr(unsafe.Pointer(unsafe.SliceData(b))), len(b)) //nolint:gosec // opaque descriptor
}

// Dequeue pops the oldest descriptor. Backpressure clears once the ring has
// drained to the low watermark.
func (q *Queue) Dequeue() (uintptr, int, error) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return 0, 0, ErrEmpty
	}
	addr, n := q.addrs[head], q.lens[head]
	next := (head + 1) & q.mask
	q.head.Store(next)

	if q.bpEnabled && q.backpressure.Load() {
		if used := int((q.tail.Load() - next) & q.mask); used <= q.low {
			if q.backpressure.CompareAndSwap(true, false) {
				q.log.Debug("backpressure cleared", "used", used, "low", q.low)
			}
		}
	}
	return addr, n, nil
}

// raise sets backpressure from a depth computed with an earlier head. If the
// consumer drained to the low watermark in between, its clear may already
// have run, so the depth is re-read after the flag is set.
func (q *Queue) raise(used int) {
	if !q.bpEnabled || !q.backpressure.CompareAndSwap(false, true) {
		return
	}
	if now := q.Len(); now <= q.low {
		q.backpressure.CompareAndSwap(true, false)
		return
	}
	q.log.Debug("backpressure raised", "used", used, "high", q.high)
}

// Backpressure reports the advisory flag. Always false when disabled.
func (q *Queue) Backpressure() bool {
	return q.backpressure.Load()
}

// Len returns the number of queued descriptors.
func (q *Queue) Len() int {
	return int((q.tail.Load() - q.head.Load()) & q.mask)
}

// Cap returns the usable capacity, size-1.
func (q *Queue) Cap() int { return int(q.mask) }

// Size returns the ring size.
func (q *Queue) Size() int { return int(q.mask) + 1 }

// IsEmpty reports whether head == tail.
func (q *Queue) IsEmpty() bool { return q.head.Load() == q.tail.Load() }

// IsFull reports whether Enqueue would return ErrFull.
func (q *Queue) IsFull() bool {
	return (q.tail.Load()+1)&q.mask == q.head.Load()
}

// State derives the fullness state from head and tail.
func (q *Queue) State() State {
	head, tail := q.head.Load(), q.tail.Load()
	switch {
	case head == tail:
		return StateEmpty
	case (tail+1)&q.mask == head:
		return StateFull
	}
	return StatePartial
}

// Watermarks returns the high and low thresholds.
func (q *Queue) Watermarks() (high, low int) { return q.high, q.low }

// MemSize returns the length of the backing buffer.
func (q *Queue) MemSize() int { return len(q.mem) }

// Stats returns a point-in-time view of the ring.
func (q *Queue) Stats() api.RingStats {
	return api.RingStats{
		Len:          q.Len(),
		Cap:          q.Cap(),
		Backpressure: q.Backpressure(),
		High:         q.high,
		Low:          q.low,
	}
}
