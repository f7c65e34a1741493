// File: api/critical.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Critical-section contract used to bracket allocator and queue mutations.

package api

// CriticalSection serializes a read-modify-write of shared bookkeeping.
//
// Implementations range from a real mutex or spinlock (multi-core), through an
// interrupt mask/unmask pair (single-core interrupt-driven targets), to a no-op
// for callers that serialize access themselves. Enter and Exit are always
// paired on the same goroutine and are never nested by this library.
type CriticalSection interface {
	Enter()
	Exit()
}
