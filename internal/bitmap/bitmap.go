// File: internal/bitmap/bitmap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package bitmap

import "github.com/bits-and-blooms/bitset"

// WordBits is the width of one bitmap word.
const WordBits = 64

// Words returns the number of words needed to hold n bits.
func Words(n int) int {
	return (n + WordBits - 1) / WordBits
}

// Bitmap tracks n bits on a bitset.BitSet. The set is never grown past n, so
// its backing words hold exactly Words(n) entries and the scans below run
// over them with LowestSet and PopCount.
type Bitmap struct {
	set *bitset.BitSet
	n   int
}

// New returns an all-clear bitmap of n bits.
func New(n int) *Bitmap {
	if n < 0 {
		n = 0
	}
	return &Bitmap{set: bitset.New(uint(n)), n: n}
}

// NewFull returns a bitmap with bits [0, n) set and the tail of the last word
// cleared.
func NewFull(n int) *Bitmap {
	b := New(n)
	b.Fill()
	return b
}

// maskTail clears bits >= n in the final word.
func (b *Bitmap) maskTail() {
	words := b.set.Words()
	if r := b.n % WordBits; r != 0 && len(words) > 0 {
		words[len(words)-1] &= (uint64(1) << uint(r)) - 1
	}
}

// Len returns the number of tracked bits.
func (b *Bitmap) Len() int { return b.n }

// Test reports whether bit i is set. Out-of-range indices report false.
func (b *Bitmap) Test(i int) bool {
	if uint(i) >= uint(b.n) {
		return false
	}
	return b.set.Test(uint(i))
}

// Set sets bit i and reports whether it was previously clear.
func (b *Bitmap) Set(i int) bool {
	if uint(i) >= uint(b.n) || b.set.Test(uint(i)) {
		return false
	}
	b.set.Set(uint(i))
	return true
}

// Clear clears bit i and reports whether it was previously set.
func (b *Bitmap) Clear(i int) bool {
	if uint(i) >= uint(b.n) || !b.set.Test(uint(i)) {
		return false
	}
	b.set.Clear(uint(i))
	return true
}

// First returns the lowest set index, or -1 when no bit is set.
// All-zero words are skipped without scanning their bits.
func (b *Bitmap) First() int {
	for wi, w := range b.set.Words() {
		if w == 0 {
			continue
		}
		idx := wi*WordBits + LowestSet(w)
		if idx >= b.n {
			// unreachable while the tail stays masked
			return -1
		}
		return idx
	}
	return -1
}

// Count returns the number of set bits in O(words).
func (b *Bitmap) Count() int {
	n := 0
	for _, w := range b.set.Words() {
		n += PopCount(w)
	}
	return n
}

// Reset clears every bit.
func (b *Bitmap) Reset() {
	b.set.ClearAll()
}

// Fill sets every tracked bit.
func (b *Bitmap) Fill() {
	words := b.set.Words()
	for i := range words {
		words[i] = ^uint64(0)
	}
	b.maskTail()
}

// Snapshot returns a copy of the raw words for diagnostics.
func (b *Bitmap) Snapshot() []uint64 {
	words := b.set.Words()
	out := make([]uint64, len(words))
	copy(out, words)
	return out
}
