//go:build linux

// File: internal/concurrency/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux affinity via sched_setaffinity on the calling thread (tid 0).

package concurrency

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	processSetOnce sync.Once
	processSet     unix.CPUSet
	processSetErr  error
)

// allowedSet returns the affinity mask the process started with, so unpinning
// restores it instead of assuming CPUs 0..N-1 are all permitted.
func allowedSet() (unix.CPUSet, error) {
	processSetOnce.Do(func() {
		processSetErr = unix.SchedGetaffinity(0, &processSet)
	})
	return processSet, processSetErr
}

func platformPinCurrentThread(cpuID int) error {
	if _, err := allowedSet(); err != nil {
		return fmt.Errorf("pin: sched_getaffinity: %w", err)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("pin: sched_setaffinity cpu %d: %w", cpuID, err)
	}
	return nil
}

func platformUnpinCurrentThread() error {
	set, err := allowedSet()
	if err != nil {
		return err
	}
	return unix.SchedSetaffinity(0, &set)
}
