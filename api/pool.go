// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines abstract pooling APIs: fixed-block allocators and the queues that
// hand their blocks between producer and consumer.

package api

// BlockPool is a fixed-block allocator over one contiguous arena.
type BlockPool interface {
	// Alloc returns the lowest-indexed free block. forHW marks the block as
	// reserved for a hardware/DMA path until it is freed.
	Alloc(forHW bool) ([]byte, error)

	// Free returns a block to the pool.
	Free(block []byte) error

	// Available reports the number of free blocks.
	Available() int

	// Used reports the number of allocated blocks.
	Used() int

	// Stats exposes accounting for observability.
	Stats() PoolStats
}

// BlockQueue is a bounded FIFO of blocks belonging to one BlockPool.
type BlockQueue interface {
	Enqueue(block []byte) error
	Dequeue() ([]byte, error)
	Peek() ([]byte, error)
	Len() int
	Cap() int
	IsEmpty() bool
	IsFull() bool
}

// PoolStats aggregates allocator state.
type PoolStats struct {
	BlockSize     int
	BlockCount    int
	Available     int
	Used          int
	HardwareOwned int
	ArenaBytes    int
	TotalAllocs   uint64
	TotalFrees    uint64
	FailedAllocs  uint64
	DoubleFrees   uint64
	InvalidFrees  uint64
}

// QueueStats aggregates PoolQueue state.
type QueueStats struct {
	Len        int
	Cap        int
	Enqueued   uint64
	Dequeued   uint64
	Rejected   uint64
	Duplicates uint64
}
