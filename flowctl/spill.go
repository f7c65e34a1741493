// File: flowctl/spill.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package flowctl

import (
	"errors"
	"fmt"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-mempool/api"
)

// ErrBacklogFull is returned by Offer once the backlog holds its limit.
var ErrBacklogFull = fmt.Errorf("flowctl: spill backlog full: %w", api.ErrResourceExhausted)

type descriptor struct {
	addr uintptr
	n    int
}

// Spiller sits in front of a ring on the producer side. Payloads the ring
// cannot take are kept in an in-order backlog and replayed before anything
// newer, so ring order always equals offer order. Not safe for concurrent use;
// it belongs to the single producer of the ring.
type Spiller struct {
	ring    api.PayloadRing
	backlog *queue.Queue
	limit   int

	spilled  uint64
	replayed uint64
}

// NewSpiller wraps ring with a backlog of at most limit descriptors.
func NewSpiller(ring api.PayloadRing, limit int) *Spiller {
	if limit <= 0 {
		limit = 1
	}
	return &Spiller{
		ring:    ring,
		backlog: queue.New(),
		limit:   limit,
	}
}

// Offer hands one descriptor to the ring, or to the backlog while the ring is
// full or older descriptors are still waiting.
func (s *Spiller) Offer(addr uintptr, n int) error {
	if _, err := s.Flush(); err != nil {
		return err
	}
	if s.backlog.Length() == 0 {
		err := s.ring.Enqueue(addr, n)
		if err == nil {
			return nil
		}
		if !isFull(err) {
			return err
		}
	}
	if s.backlog.Length() >= s.limit {
		return ErrBacklogFull
	}
	s.backlog.Add(descriptor{addr: addr, n: n})
	s.spilled++
	return nil
}

// Flush replays backlogged descriptors in order until the ring fills up or the
// backlog is empty. It returns how many were moved.
func (s *Spiller) Flush() (int, error) {
	moved := 0
	for s.backlog.Length() > 0 {
		d := s.backlog.Peek().(descriptor)
		if err := s.ring.Enqueue(d.addr, d.n); err != nil {
			if isFull(err) {
				break
			}
			return moved, err
		}
		s.backlog.Remove()
		moved++
	}
	s.replayed += uint64(moved)
	return moved, nil
}

// Pending returns the backlog length.
func (s *Spiller) Pending() int { return s.backlog.Length() }

// Spilled returns how many descriptors went through the backlog.
func (s *Spiller) Spilled() uint64 { return s.spilled }

// Replayed returns how many backlogged descriptors reached the ring.
func (s *Spiller) Replayed() uint64 { return s.replayed }

func isFull(err error) bool {
	return errors.Is(err, api.ErrResourceExhausted)
}
