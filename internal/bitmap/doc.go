// File: internal/bitmap/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Word-based bitmaps for fixed-block bookkeeping.
//
// A Bitmap keeps its bits in a bitset.BitSet sized at construction to the
// exact number of tracked blocks; bits past that length in the final word are
// cleared once and never set.
// Two primitives carry all the bit twiddling: LowestSet (index of the lowest
// set bit) and PopCount (number of set bits). They map onto math/bits
// intrinsics by default and onto portable loops under the purego build tag.
//
// Bitmaps are not safe for concurrent use; callers bracket mutations with
// their own critical section.
package bitmap
