//go:build !purego

// File: internal/bitmap/bits.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package bitmap

import "math/bits"

// LowestSet returns the index of the lowest set bit in w, or -1 if w is zero.
func LowestSet(w uint64) int {
	if w == 0 {
		return -1
	}
	return bits.TrailingZeros64(w)
}

// PopCount returns the number of set bits in w.
func PopCount(w uint64) int {
	return bits.OnesCount64(w)
}

const portable = false
