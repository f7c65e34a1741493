package pool

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-mempool/api"
	"github.com/momentics/hioload-mempool/fake"
)

func allocN(t *testing.T, p *BitmapPool, n int) [][]byte {
	t.Helper()
	out := make([][]byte, n)
	for i := range out {
		var err error
		out[i], err = p.Alloc(false)
		require.NoError(t, err)
	}
	return out
}

func TestNewQueueRejectsBadArguments(t *testing.T) {
	p := newPool(t, 64, 8)

	_, err := NewQueue(nil, 4)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = NewQueue(p, 0)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = NewQueue(p, 9)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	q, err := NewQueue(p, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, q.Cap())
	assert.True(t, q.IsEmpty())
}

func TestQueueDuplicateEnqueue(t *testing.T) {
	p := newPool(t, 64, 8)
	q, err := NewQueue(p, 4)
	require.NoError(t, err)
	blk := allocN(t, p, 1)[0]

	require.NoError(t, q.Enqueue(blk))
	err = q.Enqueue(blk)
	assert.ErrorIs(t, err, api.ErrDuplicateEnqueue)
	assert.True(t, api.IsRetriable(err))
	assert.Equal(t, 1, q.Len())

	err = q.Enqueue(blk[5:])
	assert.ErrorIs(t, err, api.ErrDuplicateEnqueue, "interior pointer names the same block")
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, uint64(2), q.Stats().Duplicates)

	got, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, addrOf(blk), addrOf(got))
	require.NoError(t, q.Enqueue(blk), "block may be queued again once dequeued")
}

func TestQueueFullAndEmpty(t *testing.T) {
	p := newPool(t, 64, 8)
	q, err := NewQueue(p, 2)
	require.NoError(t, err)
	blocks := allocN(t, p, 3)

	_, err = q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	_, err = q.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)

	require.NoError(t, q.Enqueue(blocks[0]))
	require.NoError(t, q.Enqueue(blocks[1]))
	assert.True(t, q.IsFull())

	err = q.Enqueue(blocks[2])
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.ErrorIs(t, err, api.ErrResourceExhausted)
	assert.Equal(t, 2, q.Len())
	assert.False(t, q.Contains(blocks[2]))
}

func TestQueueRejectsForeignBlock(t *testing.T) {
	p := newPool(t, 64, 4)
	q, err := NewQueue(p, 4)
	require.NoError(t, err)

	err = q.Enqueue(make([]byte, 64))
	assert.ErrorIs(t, err, api.ErrOutOfRange)
	assert.ErrorIs(t, q.Enqueue(nil), api.ErrInvalidArgument)
	assert.Equal(t, 0, q.Len())
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	p := newPool(t, 64, 4)
	q, err := NewQueue(p, 4)
	require.NoError(t, err)
	blocks := allocN(t, p, 2)
	require.NoError(t, q.Enqueue(blocks[1]))
	require.NoError(t, q.Enqueue(blocks[0]))

	head, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, addrOf(blocks[1]), addrOf(head))
	assert.Equal(t, 2, q.Len())
	assert.True(t, q.Contains(blocks[1]))
}

func TestQueueBatchIsFIFO(t *testing.T) {
	p := newPool(t, 64, 8)
	q, err := NewQueue(p, 8)
	require.NoError(t, err)
	blocks := allocN(t, p, 3)
	for _, b := range blocks {
		require.NoError(t, q.Enqueue(b))
	}

	got, n := q.DequeueBatch(nil, 10)
	require.Equal(t, 3, n)
	require.Len(t, got, 3)
	for i := range blocks {
		assert.Equal(t, addrOf(blocks[i]), addrOf(got[i]), "position %d", i)
	}
	assert.True(t, q.IsEmpty())
	for _, b := range blocks {
		assert.False(t, q.Contains(b))
	}
}

func TestQueueBatchHonoursMax(t *testing.T) {
	p := newPool(t, 64, 8)
	q, err := NewQueue(p, 8)
	require.NoError(t, err)
	blocks := allocN(t, p, 5)
	for _, b := range blocks {
		require.NoError(t, q.Enqueue(b))
	}

	dst := make([][]byte, 0, 8)
	dst, n := q.DequeueBatch(dst, 2)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, q.Len())

	dst, n = q.DequeueBatch(dst, 0)
	assert.Equal(t, 0, n)
	assert.Len(t, dst, 2)

	dst, n = q.DequeueBatch(dst, 100)
	assert.Equal(t, 3, n)
	require.Len(t, dst, 5)
	assert.Equal(t, addrOf(blocks[4]), addrOf(dst[4]))
}

func TestQueueWrapsAround(t *testing.T) {
	p := newPool(t, 64, 4)
	q, err := NewQueue(p, 3)
	require.NoError(t, err)
	blocks := allocN(t, p, 4)

	for round := 0; round < 10; round++ {
		a, b := blocks[round%4], blocks[(round+1)%4]
		require.NoError(t, q.Enqueue(a))
		require.NoError(t, q.Enqueue(b))
		got, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, addrOf(a), addrOf(got), "round %d", round)
		got, err = q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, addrOf(b), addrOf(got), "round %d", round)
	}
	assert.Equal(t, uint64(20), q.Stats().Dequeued)
}

func TestDequeueBatchEntersSectionOnce(t *testing.T) {
	cs := &fake.CountingSection{}
	p := newPool(t, 64, 8, WithCriticalSection(cs))
	q, err := NewQueue(p, 8)
	require.NoError(t, err)
	for _, b := range allocN(t, p, 6) {
		require.NoError(t, q.Enqueue(b))
	}

	cs.Reset()
	_, n := q.DequeueBatch(make([][]byte, 0, 6), 6)
	assert.Equal(t, 6, n)
	assert.Equal(t, int64(1), cs.Enters())
	assert.True(t, cs.Balanced())
}

func TestDequeueBatchDoesNotAllocate(t *testing.T) {
	p := newPool(t, 64, 4)
	q, err := NewQueue(p, 4)
	require.NoError(t, err)
	blocks := allocN(t, p, 4)
	dst := make([][]byte, 0, 4)

	allocs := testing.AllocsPerRun(100, func() {
		for _, b := range blocks {
			_ = q.Enqueue(b)
		}
		dst, _ = q.DequeueBatch(dst[:0], 4)
	})
	assert.Zero(t, allocs)
}

func TestDequeueIntoAndRelease(t *testing.T) {
	p := newPool(t, 64, 4)
	q, err := NewQueue(p, 4)
	require.NoError(t, err)
	for _, b := range allocN(t, p, 4) {
		require.NoError(t, q.Enqueue(b))
	}
	require.Equal(t, 0, p.Available())

	batch := NewBlockBatch(4)
	assert.Equal(t, 3, q.DequeueInto(batch, 3))
	assert.Equal(t, 3, batch.Len())

	first, second := batch.Split(1)
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 2, second.Len())

	require.NoError(t, batch.Release(p))
	assert.Equal(t, 0, batch.Len())
	assert.Equal(t, 3, p.Available())
}

func TestQueueOnClosedPool(t *testing.T) {
	p, err := New(64, 4)
	require.NoError(t, err)
	q, err := NewQueue(p, 4)
	require.NoError(t, err)
	blk := allocN(t, p, 1)[0]
	require.NoError(t, p.Close())

	assert.ErrorIs(t, q.Enqueue(blk), api.ErrClosed)
	_, err = q.Dequeue()
	assert.ErrorIs(t, err, api.ErrClosed)
	_, err = NewQueue(p, 2)
	assert.ErrorIs(t, err, api.ErrClosed)
}

func TestQueueProducerConsumer(t *testing.T) {
	const items = 5000
	p := newPool(t, 64, 16)
	q, err := NewQueue(p, 16)
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error {
		for sent := 0; sent < items; {
			blk, err := p.Alloc(false)
			if err != nil {
				runtime.Gosched()
				continue
			}
			blk[0] = byte(sent)
			if err := q.Enqueue(blk); err != nil {
				if ferr := p.Free(blk); ferr != nil {
					return ferr
				}
				runtime.Gosched()
				continue
			}
			sent++
		}
		return nil
	})
	g.Go(func() error {
		dst := make([][]byte, 0, 16)
		for recv := 0; recv < items; {
			dst, _ = q.DequeueBatch(dst[:0], 16)
			if len(dst) == 0 {
				runtime.Gosched()
			}
			for _, blk := range dst {
				if blk[0] != byte(recv) {
					return assert.AnError
				}
				recv++
				if err := p.Free(blk); err != nil {
					return err
				}
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())
	assert.Equal(t, 16, p.Available())
	assert.True(t, q.IsEmpty())
}
