//go:build purego

// File: internal/bitmap/bits_purego.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable fallbacks for targets without bit-scan/popcount instructions.

package bitmap

// LowestSet returns the index of the lowest set bit in w, or -1 if w is zero.
func LowestSet(w uint64) int {
	if w == 0 {
		return -1
	}
	for i := 0; i < WordBits; i++ {
		if w&(1<<uint(i)) != 0 {
			return i
		}
	}
	return -1
}

// PopCount returns the number of set bits in w (SWAR reduction).
func PopCount(w uint64) int {
	w = (w & 0x5555555555555555) + ((w >> 1) & 0x5555555555555555)
	w = (w & 0x3333333333333333) + ((w >> 2) & 0x3333333333333333)
	w = (w & 0x0F0F0F0F0F0F0F0F) + ((w >> 4) & 0x0F0F0F0F0F0F0F0F)
	w = (w & 0x00FF00FF00FF00FF) + ((w >> 8) & 0x00FF00FF00FF00FF)
	w = (w & 0x0000FFFF0000FFFF) + ((w >> 16) & 0x0000FFFF0000FFFF)
	return int((w & 0x00000000FFFFFFFF) + (w >> 32))
}

const portable = true
