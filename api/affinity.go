// Package api
// Author: momentics@gmail.com
//
// CPU affinity for producer/consumer threads.

package api

// Affinity binds the calling goroutine's OS thread to a CPU.
type Affinity interface {
	// Pin locks the current goroutine to its thread and the thread to cpuID.
	// A negative cpuID only locks the thread.
	Pin(cpuID int) error
	// Unpin removes the binding and unlocks the thread.
	Unpin() error
	// Get returns the bound CPU (-1 when unbound) and whether a pin is active.
	Get() (cpuID int, pinned bool)
}
