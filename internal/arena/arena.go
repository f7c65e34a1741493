// File: internal/arena/arena.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Arena regions backing fixed-block pools.
//
// A Region is one contiguous, aligned byte range owned by a pool. Heap regions
// come from the Go heap (over-allocated and offset to the requested alignment);
// mapped regions come from anonymous mmap, optionally on hugepages, and pinned
// regions are additionally mlock'ed so DMA engines never observe a page-out.
// Platforms without mmap fall back to the heap.

package arena

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Kind selects the backing store of a Region.
type Kind int

const (
	KindHeap   Kind = iota // Go heap, aligned by offset
	KindMapped             // anonymous mmap (hugepages when large enough)
	KindPinned             // anonymous mmap + mlock
)

func (k Kind) String() string {
	switch k {
	case KindHeap:
		return "heap"
	case KindMapped:
		return "mapped"
	case KindPinned:
		return "pinned"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configuration string onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "heap":
		return KindHeap, nil
	case "mapped", "mmap":
		return KindMapped, nil
	case "pinned", "dma":
		return KindPinned, nil
	}
	return KindHeap, fmt.Errorf("arena: unknown kind %q", s)
}

var (
	// ErrInvalidSize is returned for non-positive region sizes.
	ErrInvalidSize = errors.New("arena: invalid size")
	// ErrInvalidAlignment is returned when alignment is not a power of two.
	ErrInvalidAlignment = errors.New("arena: alignment must be a power of two")
	// ErrUnsupported is returned by platforms without mmap support.
	ErrUnsupported = errors.New("arena: mapped regions not supported on this platform")
)

// Region is an owned, aligned byte range.
type Region struct {
	data    []byte
	kind    Kind
	huge    bool
	release func([]byte) error
	closed  atomic.Bool
}

// New allocates a region of size bytes aligned to align. Mapped and pinned
// kinds degrade to the heap only when the platform has no mmap; real mmap or
// mlock failures are returned to the caller.
func New(kind Kind, size, align int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if align <= 0 || align&(align-1) != 0 {
		return nil, ErrInvalidAlignment
	}
	if kind == KindHeap {
		return Heap(size, align)
	}
	r, err := mapRegion(size, kind == KindPinned)
	if errors.Is(err, ErrUnsupported) {
		return Heap(size, align)
	}
	if err != nil {
		return nil, err
	}
	r.kind = kind
	if r.Base()&uintptr(align-1) != 0 {
		_ = r.Close()
		return nil, fmt.Errorf("%w: mapping not aligned to %d", ErrInvalidAlignment, align)
	}
	return r, nil
}

// Heap allocates an aligned region on the Go heap.
func Heap(size, align int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if align <= 0 || align&(align-1) != 0 {
		return nil, ErrInvalidAlignment
	}
	buf := make([]byte, size+align)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // alignment arithmetic
	off := int((uintptr(align) - addr&uintptr(align-1)) & uintptr(align-1))
	return &Region{
		data: buf[off : off+size : off+size],
		kind: KindHeap,
	}, nil
}

// Bytes returns the region. The slice is invalid after Close.
func (r *Region) Bytes() []byte {
	if r.closed.Load() {
		return nil
	}
	return r.data
}

// Base returns the address of the first byte.
func (r *Region) Base() uintptr {
	if len(r.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.data[0])) //nolint:gosec // address identity only
}

// Len returns the region size in bytes.
func (r *Region) Len() int { return len(r.data) }

// Kind returns the backing store actually in use.
func (r *Region) Kind() Kind { return r.kind }

// Huge reports whether the mapping landed on hugepages.
func (r *Region) Huge() bool { return r.huge }

// Close releases the region. It is idempotent.
func (r *Region) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	data := r.data
	r.data = nil
	if r.release != nil {
		return r.release(data)
	}
	return nil
}
