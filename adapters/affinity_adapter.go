// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Description:
//   Adapter implementing the api.Affinity interface, delegating to
//   internal concurrency primitives for CPU pinning.
//
// Package adapters provides glue code between the core API contracts
// and the internal implementation.

package adapters

import (
	"github.com/momentics/hioload-mempool/api"
	"github.com/momentics/hioload-mempool/internal/concurrency"
)

// AffinityAdapter implements api.Affinity for the goroutine that owns it.
// It must be used from a single goroutine.
type AffinityAdapter struct {
	currentCPU int
	pinned     bool
}

var _ api.Affinity = (*AffinityAdapter)(nil)

// NewAffinityAdapter creates an unbound adapter.
func NewAffinityAdapter() *AffinityAdapter {
	return &AffinityAdapter{currentCPU: -1}
}

// Pin binds the calling goroutine's thread to cpuID; -1 only locks the thread.
func (a *AffinityAdapter) Pin(cpuID int) error {
	if err := concurrency.PinCurrentThread(cpuID); err != nil {
		return err
	}
	a.currentCPU = cpuID
	a.pinned = true
	return nil
}

// Unpin clears the binding, allowing the OS scheduler to migrate the thread.
func (a *AffinityAdapter) Unpin() error {
	if !a.pinned {
		return nil
	}
	err := concurrency.UnpinCurrentThread()
	a.pinned = false
	a.currentCPU = -1
	return err
}

// Get returns the bound CPU and whether a pin is active.
func (a *AffinityAdapter) Get() (cpuID int, pinned bool) {
	return a.currentCPU, a.pinned
}
