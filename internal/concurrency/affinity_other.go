//go:build !linux

// File: internal/concurrency/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

func platformPinCurrentThread(int) error { return ErrAffinityNotSupported }

func platformUnpinCurrentThread() error { return nil }
