// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-block memory pooling for hioload-mempool.
// BitmapPool carves one aligned arena into equal blocks and tracks them with a
// free bitmap (first-fit, lowest index wins) and a hardware-owned bitmap for
// blocks lent to DMA engines. PoolQueue is a bounded FIFO of block indices of a
// single pool with O(1) duplicate detection. BlockBatch collects drained
// blocks without allocating.
// See pool.go, queue.go, batch.go for implementation details.
package pool
