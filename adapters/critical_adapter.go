// File: adapters/critical_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Constructors for the critical-section strategies accepted by pools and
// queues.

package adapters

import (
	"fmt"

	"github.com/momentics/hioload-mempool/api"
	"github.com/momentics/hioload-mempool/internal/concurrency"
)

// NoopSection performs no synchronization. Use it only when the caller
// already serializes every pool and queue call.
func NoopSection() api.CriticalSection { return concurrency.NoopSection{} }

// MutexSection returns a sync.Mutex-backed section.
func MutexSection() api.CriticalSection { return &concurrency.MutexSection{} }

// SpinSection returns a spinlock section for very short hold times.
func SpinSection() api.CriticalSection { return &concurrency.SpinSection{} }

// IRQSection returns a section that masks interrupts through the given
// callbacks, for single-core targets where handlers share the pool.
func IRQSection(mask func() uintptr, unmask func(uintptr)) api.CriticalSection {
	return &concurrency.IRQSection{Mask: mask, Unmask: unmask}
}

// SectionByName maps a configuration name (mutex, spin, noop) to a section.
// The empty name selects a mutex.
func SectionByName(name string) (api.CriticalSection, error) {
	switch name {
	case "", "mutex":
		return MutexSection(), nil
	case "spin":
		return SpinSection(), nil
	case "noop":
		return NoopSection(), nil
	}
	return nil, api.NewError(api.ErrCodeInvalidArgument, fmt.Sprintf("unknown critical section %q", name))
}
