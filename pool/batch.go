// File: pool/batch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reusable batch of pool blocks filled by PoolQueue.DequeueInto.
// This implementation is NOT thread-safe and avoids mutex in hot-path.

package pool

import (
	"errors"

	"github.com/momentics/hioload-mempool/api"
)

// BlockBatch is a minimal zero-alloc batch of blocks.
type BlockBatch struct {
	blocks [][]byte
}

var _ api.Batch[[]byte] = (*BlockBatch)(nil)

// NewBlockBatch creates a new batch with given capacity.
func NewBlockBatch(capacity int) *BlockBatch {
	return &BlockBatch{
		blocks: make([][]byte, 0, capacity),
	}
}

// Append adds a block to the batch.
func (b *BlockBatch) Append(block []byte) {
	b.blocks = append(b.blocks, block)
}

// Len returns number of items in the batch.
func (b *BlockBatch) Len() int {
	return len(b.blocks)
}

// Get retrieves item at index.
func (b *BlockBatch) Get(idx int) []byte {
	return b.blocks[idx]
}

// Slice returns the blocks as a plain slice.
func (b *BlockBatch) Slice() [][]byte {
	return b.blocks
}

// Split divides the batch at idx into two zero-copy sub-batches.
func (b *BlockBatch) Split(idx int) (first, second *BlockBatch) {
	return &BlockBatch{blocks: b.blocks[:idx:idx]}, &BlockBatch{blocks: b.blocks[idx:]}
}

// Release frees every block to p and resets the batch. All blocks are
// attempted; the joined errors of failed frees are returned.
func (b *BlockBatch) Release(p api.BlockFreer) error {
	var errs []error
	for _, blk := range b.blocks {
		if err := p.Free(blk); err != nil {
			errs = append(errs, err)
		}
	}
	b.Reset()
	return errors.Join(errs...)
}

// Reset clears the batch retaining underlying storage.
func (b *BlockBatch) Reset() {
	clear(b.blocks)
	b.blocks = b.blocks[:0]
}
