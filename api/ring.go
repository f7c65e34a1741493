// Package api
// Author: momentics@gmail.com
//
// Bounded ring contract for single-producer/single-consumer hand-off of
// opaque (address, length) payloads.

package api

// PayloadRing is a bounded ring of opaque payload descriptors.
type PayloadRing interface {
	// Enqueue adds a descriptor, returns an error if full.
	Enqueue(addr uintptr, n int) error
	// Dequeue removes the oldest descriptor, returns an error if empty.
	Dequeue() (addr uintptr, n int, err error)
	// Len returns current number of items.
	Len() int
	// Cap returns usable capacity.
	Cap() int
	BackpressureSignal
}

// BackpressureSignal is an advisory flag raised when a bounded queue nears
// capacity. It never blocks or fails the producer by itself.
type BackpressureSignal interface {
	Backpressure() bool
}
