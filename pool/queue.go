// File: pool/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PoolQueue: bounded FIFO of block indices belonging to one BitmapPool.
//
// Entries are 16-bit indices, not addresses, so the ring is compact and every
// dequeued index maps back to a valid block view. A membership bitset over the
// pool's index space rejects a second enqueue of the same block in O(1).

package pool

import (
	"log/slog"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"

	"github.com/momentics/hioload-mempool/api"
)

// PoolQueue is a bounded FIFO of blocks of a single pool. It never takes or
// returns block ownership; the caller still frees dequeued blocks.
type PoolQueue struct {
	pool   *BitmapPool
	ring   []uint16
	head   int
	tail   int
	count  int
	member *bitset.BitSet

	cs  api.CriticalSection
	log *slog.Logger

	enqueued   atomic.Uint64
	dequeued   atomic.Uint64
	rejected   atomic.Uint64
	duplicates atomic.Uint64
}

var _ api.BlockQueue = (*PoolQueue)(nil)

// NewQueue creates a queue holding up to capacity blocks of p.
func NewQueue(p *BitmapPool, capacity int, opts ...QueueOption) (*PoolQueue, error) {
	if p == nil {
		return nil, invalidArg("nil pool")
	}
	if p.Closed() {
		return nil, ErrPoolClosed
	}
	if capacity <= 0 || capacity > p.BlockCount() {
		return nil, invalidArg("queue capacity out of range").
			WithContext("capacity", capacity).
			WithContext("blocks", p.BlockCount())
	}
	var cfg queueConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cs == nil {
		cfg.cs = p.cs
	}
	if cfg.logger == nil {
		cfg.logger = p.log
	}
	return &PoolQueue{
		pool:   p,
		ring:   make([]uint16, capacity),
		member: bitset.New(uint(p.BlockCount())),
		cs:     cfg.cs,
		log:    cfg.logger,
	}, nil
}

// Enqueue appends block at the tail.
func (q *PoolQueue) Enqueue(block []byte) error {
	if block == nil {
		return ErrNilBlock
	}
	if q.pool.Closed() {
		return ErrPoolClosed
	}
	idx, err := q.pool.indexOfAddr(sliceAddr(block))
	if err != nil {
		q.rejected.Add(1)
		q.log.Error("enqueue of pointer outside pool", "err", err)
		return err
	}

	q.cs.Enter()
	if q.count == len(q.ring) {
		q.cs.Exit()
		q.rejected.Add(1)
		return ErrQueueFull
	}
	if q.member.Test(uint(idx)) {
		q.cs.Exit()
		q.duplicates.Add(1)
		q.log.Debug("block already queued", "index", idx)
		return api.NewError(api.ErrCodeDuplicateEnqueue, "pool queue: block already queued").
			WithContext("index", idx)
	}
	q.ring[q.tail] = uint16(idx)
	q.tail++
	if q.tail == len(q.ring) {
		q.tail = 0
	}
	q.count++
	q.member.Set(uint(idx))
	q.cs.Exit()

	q.enqueued.Add(1)
	return nil
}

// Dequeue removes and returns the head block.
func (q *PoolQueue) Dequeue() ([]byte, error) {
	if q.pool.Closed() {
		return nil, ErrPoolClosed
	}
	q.cs.Enter()
	if q.count == 0 {
		q.cs.Exit()
		return nil, ErrQueueEmpty
	}
	idx := q.popLocked()
	q.cs.Exit()

	q.dequeued.Add(1)
	return q.pool.view(idx), nil
}

// Peek returns the head block without removing it.
func (q *PoolQueue) Peek() ([]byte, error) {
	if q.pool.Closed() {
		return nil, ErrPoolClosed
	}
	q.cs.Enter()
	if q.count == 0 {
		q.cs.Exit()
		return nil, ErrQueueEmpty
	}
	idx := int(q.ring[q.head])
	q.cs.Exit()
	return q.pool.view(idx), nil
}

// DequeueBatch drains up to max blocks in FIFO order under a single critical
// section entry and appends them to dst. It returns the extended slice and the
// number of blocks drained. No allocation happens when dst has room.
func (q *PoolQueue) DequeueBatch(dst [][]byte, max int) ([][]byte, int) {
	if max <= 0 || q.pool.Closed() {
		return dst, 0
	}
	q.cs.Enter()
	n := min(max, q.count)
	for i := 0; i < n; i++ {
		dst = append(dst, q.pool.view(q.popLocked()))
	}
	q.cs.Exit()

	if n > 0 {
		q.dequeued.Add(uint64(n))
	}
	return dst, n
}

// DequeueInto drains up to max blocks into b and returns the count.
func (q *PoolQueue) DequeueInto(b *BlockBatch, max int) int {
	var n int
	b.blocks, n = q.DequeueBatch(b.blocks, max)
	return n
}

// Contains reports whether block is currently queued.
func (q *PoolQueue) Contains(block []byte) bool {
	idx, err := q.pool.IndexOf(block)
	if err != nil {
		return false
	}
	q.cs.Enter()
	defer q.cs.Exit()
	return q.member.Test(uint(idx))
}

// Len returns the number of queued blocks.
func (q *PoolQueue) Len() int {
	q.cs.Enter()
	defer q.cs.Exit()
	return q.count
}

// Cap returns the queue capacity.
func (q *PoolQueue) Cap() int { return len(q.ring) }

// IsEmpty reports whether nothing is queued.
func (q *PoolQueue) IsEmpty() bool { return q.Len() == 0 }

// IsFull reports whether Enqueue would fail with ErrQueueFull.
func (q *PoolQueue) IsFull() bool { return q.Len() == len(q.ring) }

// Pool returns the pool the queue indexes into.
func (q *PoolQueue) Pool() *BitmapPool { return q.pool }

// Stats returns queue counters.
func (q *PoolQueue) Stats() api.QueueStats {
	return api.QueueStats{
		Len:        q.Len(),
		Cap:        len(q.ring),
		Enqueued:   q.enqueued.Load(),
		Dequeued:   q.dequeued.Load(),
		Rejected:   q.rejected.Load(),
		Duplicates: q.duplicates.Load(),
	}
}

func (q *PoolQueue) popLocked() int {
	idx := int(q.ring[q.head])
	q.head++
	if q.head == len(q.ring) {
		q.head = 0
	}
	q.count--
	q.member.Clear(uint(idx))
	return idx
}
