// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, hot-reload, runtime metrics and debug introspection for
// hioload-mempool pools, queues and rings.
//
// Provides concurrent-safe state handling primitives including:
//   - YAML configuration files with defaults and validation
//   - Live key/value snapshots with reload listeners
//   - Structured logger construction
//   - Prometheus export of pool, queue and ring state
//   - Debug probes for pools, queues, rings and the platform
package control
