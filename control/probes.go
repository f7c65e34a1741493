// control/probes.go
// Author: momentics <momentics@gmail.com>
//
// Debug probes over pools, queues and rings.

package control

import (
	"fmt"

	"github.com/momentics/hioload-mempool/cqueue"
	"github.com/momentics/hioload-mempool/pool"
)

// RegisterPoolProbes exposes p under "pool.<name>".
func RegisterPoolProbes(dp *DebugProbes, name string, p *pool.BitmapPool) {
	prefix := "pool." + name
	dp.RegisterProbe(prefix+".stats", func() any { return p.Stats() })
	dp.RegisterProbe(prefix+".bitmap", func() any {
		free, owned := p.Bitmap()
		words := make([]string, len(free))
		for i := range free {
			words[i] = fmt.Sprintf("free=%016x owned=%016x", free[i], owned[i])
		}
		return words
	})
}

// RegisterQueueProbes exposes q under "queue.<name>".
func RegisterQueueProbes(dp *DebugProbes, name string, q *pool.PoolQueue) {
	dp.RegisterProbe("queue."+name+".stats", func() any { return q.Stats() })
}

// RegisterRingProbes exposes r under "ring.<name>".
func RegisterRingProbes(dp *DebugProbes, name string, r *cqueue.Queue) {
	prefix := "ring." + name
	dp.RegisterProbe(prefix+".stats", func() any { return r.Stats() })
	dp.RegisterProbe(prefix+".state", func() any { return r.State().String() })
}
