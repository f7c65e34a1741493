package cqueue

import (
	"fmt"
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-mempool/api"
)

func TestNeededMemSize(t *testing.T) {
	per := int(unsafe.Sizeof(uintptr(0)) + unsafe.Sizeof(int(0)))
	for _, size := range []int{2, 8, 64, 1024} {
		assert.Equal(t, HeaderSize+size*per, NeededMemSize(size), "size=%d", size)
	}
}

func TestNewRejectsBadSizes(t *testing.T) {
	for _, size := range []int{-4, 1, 3, 6, 12, MaxSize * 2} {
		_, err := New(size)
		assert.ErrorIs(t, err, api.ErrInvalidArgument, "size=%d", size)
	}

	_, err := NewStatic(make([]byte, NeededMemSize(8)-1), 8)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = New(8, WithWatermarks(2, 4))
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = New(8, WithWatermarks(9, 1))
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestNewZeroUsesDefaultSize(t *testing.T) {
	q, err := New(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, q.Size())
	assert.Equal(t, NeededMemSize(DefaultSize), q.MemSize())
	high, low := q.Watermarks()
	assert.Equal(t, 6, high)
	assert.Equal(t, 2, low)
}

func TestSizeEightHoldsSeven(t *testing.T) {
	q, err := New(8)
	require.NoError(t, err)
	assert.Equal(t, 7, q.Cap())
	assert.Equal(t, StateEmpty, q.State())

	for i := 0; i < 7; i++ {
		require.NoError(t, q.Enqueue(uintptr(0x1000+i), i), "enqueue %d", i)
	}
	assert.True(t, q.IsFull())
	assert.Equal(t, StateFull, q.State())

	err = q.Enqueue(0xdead, 1)
	assert.ErrorIs(t, err, ErrFull)
	assert.ErrorIs(t, err, api.ErrResourceExhausted)
	assert.Equal(t, 7, q.Len())

	for i := 0; i < 7; i++ {
		addr, n, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, uintptr(0x1000+i), addr)
		assert.Equal(t, i, n)
	}
	_, _, err = q.Dequeue()
	assert.ErrorIs(t, err, ErrEmpty)
	assert.True(t, q.IsEmpty())
}

func TestBackpressureHysteresis(t *testing.T) {
	q, err := New(8)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(uintptr(i+1), 1))
	}
	assert.False(t, q.Backpressure(), "5 < high")

	require.NoError(t, q.Enqueue(6, 1))
	assert.True(t, q.Backpressure(), "used 6 reaches high")

	for i := 0; i < 3; i++ {
		_, _, err := q.Dequeue()
		require.NoError(t, err)
	}
	assert.Equal(t, 3, q.Len())
	assert.True(t, q.Backpressure(), "used 3 is above low")

	_, _, err = q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 2, q.Len())
	assert.False(t, q.Backpressure(), "used 2 reaches low")

	require.NoError(t, q.Enqueue(7, 1))
	require.NoError(t, q.Enqueue(8, 1))
	assert.Equal(t, 4, q.Len())
	assert.False(t, q.Backpressure(), "no flapping between the watermarks")
}

func TestFullRaisesBackpressure(t *testing.T) {
	q, err := New(8, WithWatermarks(8, 1))
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		require.NoError(t, q.Enqueue(uintptr(i+1), 1))
	}
	assert.False(t, q.Backpressure())

	assert.ErrorIs(t, q.Enqueue(99, 1), ErrFull)
	assert.True(t, q.Backpressure())
}

func TestStaleRaiseDoesNotStick(t *testing.T) {
	q, err := New(8)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		require.NoError(t, q.Enqueue(uintptr(i+1), 1))
	}
	require.True(t, q.Backpressure())
	for i := 0; i < 6; i++ {
		_, _, err := q.Dequeue()
		require.NoError(t, err)
	}
	require.False(t, q.Backpressure())

	// A producer that measured used=6 before the consumer drained.
	q.raise(6)
	assert.False(t, q.Backpressure(), "empty ring must not stay under backpressure")

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(uintptr(i+1), 1))
	}
	q.raise(6)
	assert.True(t, q.Backpressure(), "depth 3 is above low, the raise holds")
}

func TestBackpressureDisabled(t *testing.T) {
	q, err := New(4, WithBackpressure(false))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(uintptr(i+1), 1))
	}
	assert.ErrorIs(t, q.Enqueue(4, 1), ErrFull)
	assert.False(t, q.Backpressure())
}

func TestNewStaticRealignsBuffer(t *testing.T) {
	for shift := 0; shift < 8; shift++ {
		t.Run(fmt.Sprintf("shift=%d", shift), func(t *testing.T) {
			raw := make([]byte, NeededMemSize(16)+shift)
			q, err := NewStatic(raw[shift:], 16)
			require.NoError(t, err)
			for round := 0; round < 3; round++ {
				for i := 0; i < 15; i++ {
					require.NoError(t, q.Enqueue(uintptr(round*100+i), i*3))
				}
				for i := 0; i < 15; i++ {
					addr, n, err := q.Dequeue()
					require.NoError(t, err)
					require.Equal(t, uintptr(round*100+i), addr)
					require.Equal(t, i*3, n)
				}
			}
		})
	}
}

func TestEnqueueBytes(t *testing.T) {
	q, err := New(4)
	require.NoError(t, err)
	payload := []byte("hello")
	require.NoError(t, q.EnqueueBytes(payload))

	addr, n, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, uintptr(unsafe.Pointer(&payload[0])), addr)
	assert.Equal(t, len(payload), n)
}

func TestStateTransitions(t *testing.T) {
	q, err := New(2)
	require.NoError(t, err)
	assert.Equal(t, "empty", q.State().String())
	require.NoError(t, q.Enqueue(1, 1))
	assert.Equal(t, StateFull, q.State())
	_, _, err = q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, q.State())

	q, err = New(8)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(1, 1))
	assert.Equal(t, StatePartial, q.State())
}

func TestSPSCPreservesOrder(t *testing.T) {
	const items = 100_000
	q, err := New(64)
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error {
		for i := 1; i <= items; {
			if err := q.Enqueue(uintptr(i), i&0xff); err != nil {
				runtime.Gosched()
				continue
			}
			i++
		}
		return nil
	})
	g.Go(func() error {
		for want := 1; want <= items; {
			addr, n, err := q.Dequeue()
			if err != nil {
				runtime.Gosched()
				continue
			}
			if addr != uintptr(want) || n != want&0xff {
				return fmt.Errorf("got (%d,%d) want (%d,%d)", addr, n, want, want&0xff)
			}
			want++
		}
		return nil
	})
	require.NoError(t, g.Wait())
	assert.True(t, q.IsEmpty())
}
