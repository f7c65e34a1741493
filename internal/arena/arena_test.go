package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAlignment(t *testing.T) {
	for _, align := range []int{8, 64, 128, 4096} {
		for _, size := range []int{1, 63, 64, 65, 1000, 64 * 256} {
			r, err := Heap(size, align)
			require.NoError(t, err)
			assert.Equal(t, size, r.Len())
			assert.Zero(t, r.Base()%uintptr(align), "size=%d align=%d", size, align)
			assert.Equal(t, KindHeap, r.Kind())
			require.NoError(t, r.Close())
		}
	}
}

func TestNewRejectsBadArguments(t *testing.T) {
	_, err := New(KindHeap, 0, 64)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = New(KindHeap, 64, 48)
	assert.ErrorIs(t, err, ErrInvalidAlignment)
	_, err = Heap(64, 0)
	assert.ErrorIs(t, err, ErrInvalidAlignment)
}

func TestCloseIsIdempotent(t *testing.T) {
	r, err := New(KindHeap, 256, 64)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Nil(t, r.Bytes())
}

func TestMappedRegion(t *testing.T) {
	r, err := New(KindMapped, 64*1024, 64)
	require.NoError(t, err)
	defer r.Close()

	b := r.Bytes()
	require.Len(t, b, 64*1024)
	assert.Zero(t, r.Base()%64)
	b[0], b[len(b)-1] = 0xAA, 0x55
	assert.Equal(t, byte(0xAA), b[0])
	assert.Equal(t, byte(0x55), b[len(b)-1])
}

func TestPinnedRegion(t *testing.T) {
	r, err := New(KindPinned, 4096, 64)
	if err != nil {
		t.Skipf("mlock not permitted here: %v", err)
	}
	defer r.Close()
	assert.Len(t, r.Bytes(), 4096)
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{"": KindHeap, "heap": KindHeap, "mmap": KindMapped, "mapped": KindMapped, "dma": KindPinned, "pinned": KindPinned}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("numa")
	assert.Error(t, err)
}
