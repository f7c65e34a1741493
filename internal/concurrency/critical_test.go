// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync"
	"testing"

	"github.com/momentics/hioload-mempool/api"
)

var (
	_ api.CriticalSection = NoopSection{}
	_ api.CriticalSection = (*MutexSection)(nil)
	_ api.CriticalSection = (*SpinSection)(nil)
	_ api.CriticalSection = (*IRQSection)(nil)
)

// hammer runs workers*iters increments of a plain counter under cs.
func hammer(cs api.CriticalSection, workers, iters int) int {
	var (
		wg      sync.WaitGroup
		counter int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				cs.Enter()
				counter++
				cs.Exit()
			}
		}()
	}
	wg.Wait()
	return counter
}

func TestMutexSectionSerializes(t *testing.T) {
	if got := hammer(&MutexSection{}, 8, 2000); got != 16000 {
		t.Fatalf("expected 16000, got %d", got)
	}
}

func TestSpinSectionSerializes(t *testing.T) {
	if got := hammer(&SpinSection{}, 8, 2000); got != 16000 {
		t.Fatalf("expected 16000, got %d", got)
	}
}

func TestNoopSectionSingleThreaded(t *testing.T) {
	if got := hammer(NoopSection{}, 1, 500); got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}
}

func TestIRQSectionRestoresSavedState(t *testing.T) {
	var (
		masked   bool
		restored uintptr
	)
	cs := &IRQSection{
		Mask: func() uintptr {
			masked = true
			return 0x200 // pretend IF was set
		},
		Unmask: func(saved uintptr) {
			masked = false
			restored = saved
		},
	}
	cs.Enter()
	if !masked {
		t.Fatal("expected interrupts masked inside the section")
	}
	cs.Exit()
	if masked || restored != 0x200 {
		t.Fatalf("expected restore of 0x200, got masked=%v restored=%#x", masked, restored)
	}

	// Nil callbacks degrade to a no-op.
	(&IRQSection{}).Enter()
	(&IRQSection{}).Exit()
}

func TestPinCurrentThreadRejectsBadCPU(t *testing.T) {
	if err := PinCurrentThread(NumCPUs() + 1); err == nil {
		UnpinCurrentThread()
		t.Fatal("expected error for out-of-range cpu")
	}
	if err := PinCurrentThread(-1); err != nil {
		t.Fatalf("negative cpu only locks the thread: %v", err)
	}
	if err := UnpinCurrentThread(); err != nil {
		t.Fatalf("unpin: %v", err)
	}
}
