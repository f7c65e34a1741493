// File: api/control.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Control is the runtime management surface of a process hosting pools,
// queues and rings: a flat key/value config snapshot with reload listeners,
// published counters and named debug probes.
type Control interface {
	// GetConfig returns a copy of the current config snapshot.
	GetConfig() map[string]any
	// SetConfig merges cfg into the snapshot and notifies listeners.
	SetConfig(cfg map[string]any) error
	// Stats merges config, metrics and probe output.
	Stats() map[string]any
	// SetMetric records a single metric value.
	SetMetric(key string, value any)
	OnReload(fn func())
	RegisterDebugProbe(name string, fn func() any)
}
