// File: pool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BitmapPool: fixed-size blocks over one aligned arena.
//
// Bit i of the free bitmap is 1 while block i is free. Bit i of the owned
// bitmap is 1 while block i is lent to hardware; owned implies not free.
// Allocation is strict first-fit: the lowest free index is always returned.

package pool

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-mempool/api"
	"github.com/momentics/hioload-mempool/internal/arena"
	"github.com/momentics/hioload-mempool/internal/bitmap"
	"github.com/momentics/hioload-mempool/internal/concurrency"
)

// BitmapPool is a first-fit fixed-block allocator.
type BitmapPool struct {
	name      string
	region    *arena.Region
	mem       []byte
	base      uintptr
	blockSize int
	count     int
	align     int

	free  *bitmap.Bitmap
	owned *bitmap.Bitmap

	cs     api.CriticalSection
	log    *slog.Logger
	strict bool
	closed atomic.Bool

	allocs       atomic.Uint64
	frees        atomic.Uint64
	failedAllocs atomic.Uint64
	doubleFrees  atomic.Uint64
	invalidFrees atomic.Uint64
}

var _ api.BlockPool = (*BitmapPool)(nil)

// New creates a pool of numBlocks blocks of at least dataSize bytes each.
// Every block starts free and not hardware-owned.
func New(dataSize, numBlocks int, opts ...Option) (*BitmapPool, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.name != "" {
		logger = logger.With("pool", cfg.name)
	}

	switch {
	case cfg.maxBlocks <= 0 || cfg.maxBlocks > HardMaxBlocks:
		return nil, invalidArg("max blocks out of range").WithContext("max", cfg.maxBlocks)
	case numBlocks <= 0 || numBlocks > cfg.maxBlocks:
		return nil, invalidArg("block count out of range").
			WithContext("blocks", numBlocks).
			WithContext("max", cfg.maxBlocks)
	case dataSize < 0:
		return nil, invalidArg("negative block size").WithContext("size", dataSize)
	case cfg.alignment <= 0 || cfg.alignment&(cfg.alignment-1) != 0:
		return nil, invalidArg("alignment must be a power of two").WithContext("alignment", cfg.alignment)
	}

	blockSize := AlignedSize(dataSize, cfg.alignment)
	if blockSize > int(^uint(0)>>1)/numBlocks {
		return nil, invalidArg("arena size overflows").
			WithContext("block_size", blockSize).
			WithContext("blocks", numBlocks)
	}

	region, err := arena.New(cfg.arenaKind, blockSize*numBlocks, cfg.alignment)
	if err != nil {
		logger.Error("arena allocation failed",
			"kind", cfg.arenaKind.String(),
			"bytes", blockSize*numBlocks,
			"err", err)
		return nil, fmt.Errorf("pool: allocate %s arena: %w: %w", cfg.arenaKind, api.ErrResourceExhausted, err)
	}

	cs := cfg.cs
	if cs == nil {
		cs = &concurrency.MutexSection{}
	}

	p := &BitmapPool{
		name:      cfg.name,
		region:    region,
		mem:       region.Bytes(),
		base:      region.Base(),
		blockSize: blockSize,
		count:     numBlocks,
		align:     cfg.alignment,
		free:      bitmap.NewFull(numBlocks),
		owned:     bitmap.New(numBlocks),
		cs:        cs,
		log:       logger,
		strict:    cfg.strictFree,
	}
	logger.Debug("pool created",
		"block_size", blockSize,
		"blocks", numBlocks,
		"arena", region.Kind().String(),
		"hugepages", region.Huge(),
		"base", fmt.Sprintf("%#x", p.base))
	return p, nil
}

// AlignedSize rounds n up to a multiple of align (a power of two). Zero yields
// one alignment unit so every block has a distinct address.
func AlignedSize(n, align int) int {
	if n <= 0 {
		return align
	}
	return (n + align - 1) &^ (align - 1)
}

// Alloc takes the lowest-indexed free block. With forHW set the block is also
// marked hardware-owned until Free.
func (p *BitmapPool) Alloc(forHW bool) ([]byte, error) {
	p.cs.Enter()
	if p.closed.Load() {
		p.cs.Exit()
		return nil, ErrPoolClosed
	}
	idx := p.free.First()
	if idx < 0 || idx >= p.count {
		p.cs.Exit()
		p.failedAllocs.Add(1)
		p.log.Debug("pool exhausted", "blocks", p.count)
		return nil, ErrPoolExhausted
	}
	p.free.Clear(idx)
	if forHW {
		p.owned.Set(idx)
	}
	blk := p.view(idx)
	p.cs.Exit()

	p.allocs.Add(1)
	return blk, nil
}

// Free returns block to the pool. Any slice pointing into a block, including a
// re-sliced view, identifies that block. Freeing an already-free block is a
// no-op unless WithStrictFree was given.
func (p *BitmapPool) Free(block []byte) error {
	if block == nil {
		p.invalidFrees.Add(1)
		return ErrNilBlock
	}
	addr := sliceAddr(block)

	p.cs.Enter()
	if p.closed.Load() {
		p.cs.Exit()
		return ErrPoolClosed
	}
	idx, err := p.indexOfAddr(addr)
	if err != nil {
		p.cs.Exit()
		p.invalidFrees.Add(1)
		p.log.Error("free of pointer outside pool", "addr", fmt.Sprintf("%#x", addr))
		return err
	}
	if p.free.Test(idx) {
		p.cs.Exit()
		p.doubleFrees.Add(1)
		p.log.Debug("block already free", "index", idx)
		if p.strict {
			return api.NewError(api.ErrCodeDoubleFree, "pool: block already free").WithContext("index", idx)
		}
		return nil
	}
	p.owned.Clear(idx)
	p.free.Set(idx)
	p.cs.Exit()

	p.frees.Add(1)
	return nil
}

// Available returns the number of free blocks.
func (p *BitmapPool) Available() int {
	p.cs.Enter()
	defer p.cs.Exit()
	if p.closed.Load() {
		return 0
	}
	return p.free.Count()
}

// Used returns the number of allocated blocks.
func (p *BitmapPool) Used() int {
	p.cs.Enter()
	defer p.cs.Exit()
	if p.closed.Load() {
		return 0
	}
	return p.count - p.free.Count()
}

// HardwareOwned returns the number of blocks currently lent to hardware.
func (p *BitmapPool) HardwareOwned() int {
	p.cs.Enter()
	defer p.cs.Exit()
	return p.owned.Count()
}

// IsHardwareOwned reports whether block was allocated with forHW and not yet freed.
func (p *BitmapPool) IsHardwareOwned(block []byte) bool {
	idx, err := p.IndexOf(block)
	if err != nil {
		return false
	}
	p.cs.Enter()
	defer p.cs.Exit()
	return p.owned.Test(idx)
}

// IsFree reports whether block i is free. Out-of-range indices report false.
func (p *BitmapPool) IsFree(i int) bool {
	if i < 0 || i >= p.count {
		return false
	}
	p.cs.Enter()
	defer p.cs.Exit()
	return p.free.Test(i)
}

// Block returns the view of block i regardless of its state.
func (p *BitmapPool) Block(i int) ([]byte, error) {
	if i < 0 || i >= p.count {
		return nil, api.NewError(api.ErrCodeOutOfRange, "pool: block index out of range").
			WithContext("index", i).
			WithContext("blocks", p.count)
	}
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	return p.view(i), nil
}

// BlockAt resolves an address anywhere inside a block to that block's view.
func (p *BitmapPool) BlockAt(addr uintptr) ([]byte, error) {
	idx, err := p.indexOfAddr(addr)
	if err != nil {
		return nil, err
	}
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	return p.view(idx), nil
}

// IndexOf resolves block to its index.
func (p *BitmapPool) IndexOf(block []byte) (int, error) {
	if block == nil {
		return -1, ErrNilBlock
	}
	if p.closed.Load() {
		return -1, ErrPoolClosed
	}
	return p.indexOfAddr(sliceAddr(block))
}

// Addr returns the address of the first byte of block.
func (p *BitmapPool) Addr(block []byte) uintptr {
	return sliceAddr(block)
}

// Base returns the arena base address.
func (p *BitmapPool) Base() uintptr { return p.base }

// BlockSize returns the aligned size of each block.
func (p *BitmapPool) BlockSize() int { return p.blockSize }

// BlockCount returns the number of blocks.
func (p *BitmapPool) BlockCount() int { return p.count }

// Alignment returns the alignment of the arena and of every block.
func (p *BitmapPool) Alignment() int { return p.align }

// Name returns the label given with WithName.
func (p *BitmapPool) Name() string { return p.name }

// Bitmap returns copies of the free and owned bitmap words.
func (p *BitmapPool) Bitmap() (free, owned []uint64) {
	p.cs.Enter()
	defer p.cs.Exit()
	return p.free.Snapshot(), p.owned.Snapshot()
}

// LogBitmaps writes the bitmap words to the pool logger at debug level.
func (p *BitmapPool) LogBitmaps() {
	free, owned := p.Bitmap()
	for i := range free {
		p.log.Debug("bitmap word",
			"word", i,
			"free", fmt.Sprintf("%016x", free[i]),
			"owned", fmt.Sprintf("%016x", owned[i]))
	}
}

// Stats returns a point-in-time view of the pool.
func (p *BitmapPool) Stats() api.PoolStats {
	p.cs.Enter()
	avail, used, hw := 0, 0, p.owned.Count()
	if !p.closed.Load() {
		avail = p.free.Count()
		used = p.count - avail
	}
	p.cs.Exit()

	return api.PoolStats{
		BlockSize:     p.blockSize,
		BlockCount:    p.count,
		Available:     avail,
		Used:          used,
		HardwareOwned: hw,
		ArenaBytes:    p.blockSize * p.count,
		TotalAllocs:   p.allocs.Load(),
		TotalFrees:    p.frees.Load(),
		FailedAllocs:  p.failedAllocs.Load(),
		DoubleFrees:   p.doubleFrees.Load(),
		InvalidFrees:  p.invalidFrees.Load(),
	}
}

// Closed reports whether Close has been called.
func (p *BitmapPool) Closed() bool { return p.closed.Load() }

// Close releases the arena. Outstanding blocks become invalid. Idempotent.
func (p *BitmapPool) Close() error {
	p.cs.Enter()
	if p.closed.Swap(true) {
		p.cs.Exit()
		return nil
	}
	p.free.Reset()
	p.owned.Reset()
	p.cs.Exit()

	p.log.Debug("pool closed", "allocs", p.allocs.Load(), "frees", p.frees.Load())
	return p.region.Close()
}

// indexOfAddr maps an address inside the arena to its block index.
func (p *BitmapPool) indexOfAddr(addr uintptr) (int, error) {
	size := p.blockSize * p.count
	if addr < p.base || addr >= p.base+uintptr(size) {
		return -1, outOfRange(addr, p.base, size)
	}
	idx := int((addr - p.base) / uintptr(p.blockSize))
	if idx >= p.count {
		return -1, outOfRange(addr, p.base, size)
	}
	return idx, nil
}

// view returns block i with its capacity clipped at the block end. mem is
// never reassigned after New, so no section is needed.
func (p *BitmapPool) view(i int) []byte {
	off := i * p.blockSize
	return p.mem[off : off+p.blockSize : off+p.blockSize]
}

func sliceAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b))) //nolint:gosec // address identity only
}
