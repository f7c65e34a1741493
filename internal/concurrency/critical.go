// File: internal/concurrency/critical.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Critical-section strategies for allocator and queue bookkeeping.
// All of them satisfy api.CriticalSection and are selected at construction.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// NoopSection performs no synchronization. Correctness then rests entirely on
// the caller serializing every access to the protected structure.
type NoopSection struct{}

func (NoopSection) Enter() {}
func (NoopSection) Exit()  {}

// MutexSection wraps sync.Mutex.
type MutexSection struct {
	mu sync.Mutex
}

func (s *MutexSection) Enter() { s.mu.Lock() }
func (s *MutexSection) Exit()  { s.mu.Unlock() }

// SpinSection is a test-and-test-and-set spinlock. It never parks the
// goroutine, which keeps worst-case latency bounded for short sections; after
// spinLimit failed probes it yields the processor.
type SpinSection struct {
	state atomic.Uint32
	_     [60]byte // keep the lock word on its own cache line
}

const spinLimit = 64

func (s *SpinSection) Enter() {
	spins := 0
	for {
		if s.state.Load() == 0 && s.state.CompareAndSwap(0, 1) {
			return
		}
		spins++
		if spins >= spinLimit {
			runtime.Gosched()
			spins = 0
		}
	}
}

func (s *SpinSection) Exit() { s.state.Store(0) }

// IRQSection brackets the section with an interrupt mask/unmask pair supplied
// by the embedding system. Mask returns the saved state handed back to Unmask,
// mirroring local_irq_save/local_irq_restore.
type IRQSection struct {
	Mask   func() uintptr
	Unmask func(saved uintptr)
	saved  uintptr
}

func (s *IRQSection) Enter() {
	if s.Mask != nil {
		s.saved = s.Mask()
	}
}

func (s *IRQSection) Exit() {
	if s.Unmask != nil {
		s.Unmask(s.saved)
	}
}
