// File: pool/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-mempool/api"
)

// Package-level failures. Each wraps the api sentinel of its kind so callers
// may match either the specific error or the general category.
var (
	// ErrPoolExhausted is returned by Alloc when no block is free.
	ErrPoolExhausted = fmt.Errorf("pool: no free block: %w", api.ErrResourceExhausted)
	// ErrPoolClosed is returned by every operation after Close.
	ErrPoolClosed = fmt.Errorf("pool: closed: %w", api.ErrClosed)
	// ErrQueueFull is returned by Enqueue at capacity.
	ErrQueueFull = fmt.Errorf("pool queue: full: %w", api.ErrResourceExhausted)
	// ErrQueueEmpty is returned by Dequeue and Peek on an empty queue.
	ErrQueueEmpty = errors.New("pool queue: empty")
	// ErrNilBlock is returned when a nil slice is passed where a block is expected.
	ErrNilBlock = fmt.Errorf("pool: nil block: %w", api.ErrInvalidArgument)
)

func invalidArg(msg string) *api.Error {
	return api.NewError(api.ErrCodeInvalidArgument, "pool: "+msg)
}

func outOfRange(addr, base uintptr, size int) *api.Error {
	return api.NewError(api.ErrCodeOutOfRange, "pool: address outside arena").
		WithContext("addr", fmt.Sprintf("%#x", addr)).
		WithContext("base", fmt.Sprintf("%#x", base)).
		WithContext("size", size)
}
