// File: internal/concurrency/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cross-platform CPU affinity for producer/consumer threads.

package concurrency

import (
	"errors"
	"runtime"
)

// ErrAffinityNotSupported indicates CPU affinity is not supported on this platform.
var ErrAffinityNotSupported = errors.New("CPU affinity not supported")

// PinCurrentThread locks the calling goroutine to its OS thread and binds the
// thread to cpuID. A negative cpuID only locks the thread. The goroutine stays
// locked until UnpinCurrentThread.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	if cpuID < 0 {
		return nil
	}
	if cpuID >= runtime.NumCPU() {
		runtime.UnlockOSThread()
		return errors.New("cpu index out of range")
	}
	if err := platformPinCurrentThread(cpuID); err != nil {
		runtime.UnlockOSThread()
		return err
	}
	return nil
}

// UnpinCurrentThread clears the CPU binding and unlocks the OS thread.
func UnpinCurrentThread() error {
	err := platformUnpinCurrentThread()
	runtime.UnlockOSThread()
	return err
}

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return runtime.NumCPU()
}
