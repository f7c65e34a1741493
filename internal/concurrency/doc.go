// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for hioload-mempool: pluggable critical sections
// (no-op, mutex, spinlock, interrupt mask) guarding allocator and queue
// bookkeeping, and CPU pinning for latency-sensitive producer/consumer threads.
package concurrency
