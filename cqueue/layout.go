// File: cqueue/layout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cqueue

import (
	"unsafe"

	"github.com/momentics/hioload-mempool/api"
)

const (
	// HeaderSize is reserved at the front of the backing buffer. It absorbs the
	// realignment of an arbitrarily offset buffer so both views land on word
	// boundaries.
	HeaderSize = 64
	// DefaultSize is the ring size used by New when size is zero.
	DefaultSize = 8
	// MaxSize bounds the ring size.
	MaxSize = 1 << 16

	addrSize = int(unsafe.Sizeof(uintptr(0)))
	lenSize  = int(unsafe.Sizeof(int(0)))
	wordSize = addrSize
)

// NeededMemSize returns the minimum buffer length NewStatic accepts for size.
func NeededMemSize(size int) int {
	return HeaderSize + size*(addrSize+lenSize)
}

func validSize(size int) error {
	if size < 2 || size > MaxSize || size&(size-1) != 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "cqueue: size must be a power of two in [2, MaxSize]").
			WithContext("size", size)
	}
	return nil
}

// carve lays the address and length views over mem. mem must hold at least
// NeededMemSize(size) bytes.
func carve(mem []byte, size int) ([]uintptr, []int) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(mem))) //nolint:gosec // alignment arithmetic
	off := HeaderSize - int(base%uintptr(wordSize))
	addrs := unsafe.Slice((*uintptr)(unsafe.Pointer(&mem[off])), size)
	off += size * addrSize
	lens := unsafe.Slice((*int)(unsafe.Pointer(&mem[off])), size)
	return addrs, lens
}
