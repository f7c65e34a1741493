// Package api
// Author: momentics@gmail.com
//
// Batches drained from a queue in one critical section and handed back to
// their pool together.

package api

// Batch is an ordered group of items taken in one step.
type Batch[T any] interface {
	// Len returns the number of items in the batch.
	Len() int
	// Get retrieves item at index.
	Get(index int) T
	// Slice exposes the items without copying.
	Slice() []T
	// Reset empties the batch and keeps its storage.
	Reset()
}

// BlockFreer takes blocks back. Every BlockPool is one.
type BlockFreer interface {
	Free(block []byte) error
}
