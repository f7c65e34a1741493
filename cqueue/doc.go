// Package cqueue
// Author: momentics <momentics@gmail.com>
//
// Single-producer/single-consumer ring of opaque (address, length) payload
// descriptors over caller-supplied memory, with an advisory hysteretic
// backpressure flag. The producer may keep enqueueing while the flag is
// raised; it is a hint to slow down, not a gate.
package cqueue
