package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-mempool/cqueue"
	"github.com/momentics/hioload-mempool/internal/bitmap"
	"github.com/momentics/hioload-mempool/pool"
)

type layoutReport struct {
	BlockSize        int             `json:"block_size"`
	AlignedBlockSize int             `json:"aligned_block_size"`
	Blocks           int             `json:"blocks"`
	Alignment        int             `json:"alignment"`
	ArenaBytes       int             `json:"arena_bytes"`
	BitmapWords      int             `json:"bitmap_words"`
	RingSize         int             `json:"ring_size"`
	RingCapacity     int             `json:"ring_capacity"`
	RingMemBytes     int             `json:"ring_mem_bytes"`
	HighWatermark    int             `json:"high_watermark"`
	LowWatermark     int             `json:"low_watermark"`
	BitOps           bitmap.Features `json:"bitops"`
}

func init() {
	rootCmd.AddCommand(newLayoutCmd())
}

func newLayoutCmd() *cobra.Command {
	var (
		blockSize int
		blocks    int
		alignment int
		ringSize  int
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print pool and ring memory layout",
		Long: `The layout command computes the aligned block size, arena size and bitmap
word count of a pool, and the memory a circular queue of the given size needs.

Example:
  hiopool layout --block-size 1500 --blocks 256 --ring-size 64
  hiopool layout --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := computeLayout(blockSize, blocks, alignment, ringSize)
			if err != nil {
				return err
			}
			return printLayout(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().IntVar(&blockSize, "block-size", 256, "Requested payload bytes per block")
	cmd.Flags().IntVar(&blocks, "blocks", 64, "Number of blocks")
	cmd.Flags().IntVar(&alignment, "alignment", pool.DefaultAlignment, "Block alignment (power of two)")
	cmd.Flags().IntVar(&ringSize, "ring-size", cqueue.DefaultSize, "Circular queue size (power of two)")
	return cmd
}

func computeLayout(blockSize, blocks, alignment, ringSize int) (layoutReport, error) {
	if blockSize < 0 || blocks <= 0 || blocks > pool.HardMaxBlocks {
		return layoutReport{}, fmt.Errorf("invalid pool geometry: %d blocks of %d bytes", blocks, blockSize)
	}
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		return layoutReport{}, fmt.Errorf("alignment %d is not a power of two", alignment)
	}
	if ringSize < 2 || ringSize&(ringSize-1) != 0 {
		return layoutReport{}, fmt.Errorf("ring size %d is not a power of two >= 2", ringSize)
	}
	aligned := pool.AlignedSize(blockSize, alignment)
	return layoutReport{
		BlockSize:        blockSize,
		AlignedBlockSize: aligned,
		Blocks:           blocks,
		Alignment:        alignment,
		ArenaBytes:       aligned * blocks,
		BitmapWords:      bitmap.Words(blocks),
		RingSize:         ringSize,
		RingCapacity:     ringSize - 1,
		RingMemBytes:     cqueue.NeededMemSize(ringSize),
		HighWatermark:    ringSize * 3 / 4,
		LowWatermark:     ringSize / 4,
		BitOps:           bitmap.Detect(),
	}, nil
}

func printLayout(w io.Writer, r layoutReport) error {
	if jsonOut {
		return printJSON(w, r)
	}
	fmt.Fprintf(w, "Pool:\n")
	fmt.Fprintf(w, "  block size:   %d -> %d (alignment %d)\n", r.BlockSize, r.AlignedBlockSize, r.Alignment)
	fmt.Fprintf(w, "  blocks:       %d\n", r.Blocks)
	fmt.Fprintf(w, "  arena bytes:  %d\n", r.ArenaBytes)
	fmt.Fprintf(w, "  bitmap words: %d (x2: free, owned)\n", r.BitmapWords)
	fmt.Fprintf(w, "Ring:\n")
	fmt.Fprintf(w, "  size:         %d (usable %d)\n", r.RingSize, r.RingCapacity)
	fmt.Fprintf(w, "  memory:       %d bytes\n", r.RingMemBytes)
	fmt.Fprintf(w, "  watermarks:   high %d, low %d\n", r.HighWatermark, r.LowWatermark)
	fmt.Fprintf(w, "Bit ops:\n")
	fmt.Fprintf(w, "  arch %s, portable %v, popcnt %v, bsf %v\n",
		r.BitOps.Arch, r.BitOps.Portable, r.BitOps.HardwarePop, r.BitOps.HardwareBSF)
	return nil
}
