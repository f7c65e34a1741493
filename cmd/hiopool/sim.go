package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-mempool/adapters"
	"github.com/momentics/hioload-mempool/api"
	"github.com/momentics/hioload-mempool/control"
	"github.com/momentics/hioload-mempool/cqueue"
	"github.com/momentics/hioload-mempool/flowctl"
	"github.com/momentics/hioload-mempool/pool"
)

type simOptions struct {
	configPath  string
	items       int
	metricsAddr string
	pinCPU      int
	batch       int
	hwEvery     int
}

type simReport struct {
	Items       int            `json:"items"`
	Elapsed     time.Duration  `json:"elapsed_ns"`
	ItemsPerSec float64        `json:"items_per_sec"`
	Corrupt     uint64         `json:"corrupt"`
	Recycled    uint64         `json:"recycled"`
	Spilled     uint64         `json:"spilled"`
	Replayed    uint64         `json:"replayed"`
	Throttled   uint64         `json:"throttled"`
	Pool        api.PoolStats  `json:"pool"`
	Queue       api.QueueStats `json:"queue"`
	Ring        api.RingStats  `json:"ring"`
	RingState   string         `json:"ring_state"`
	MetricsAddr string         `json:"metrics_addr,omitempty"`
	Config      control.Config `json:"-"`
	Published   map[string]any `json:"-"`
}

func init() {
	rootCmd.AddCommand(newSimCmd())
}

func newSimCmd() *cobra.Command {
	var opts simOptions
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a producer/worker/recycler pipeline over a pool and a ring",
		Long: `The sim command allocates blocks from a bitmap pool, hands them to a worker
through a PoolQueue, and returns them to a recycler through a circular queue
guarded by a backpressure gate and a spill backlog. The recycler frees every
block, so the pool is full again when the run ends.

Example:
  hiopool sim --items 100000
  hiopool sim --config pipeline.yaml --metrics-addr :9100 --pin-cpu 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			report, err := runSim(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return printSimReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	cmd.Flags().IntVar(&opts.items, "items", 10000, "Number of blocks to push through the pipeline")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
	cmd.Flags().IntVar(&opts.pinCPU, "pin-cpu", -1, "Pin the worker to this CPU (-1 leaves it unpinned)")
	cmd.Flags().IntVar(&opts.batch, "batch", 16, "Worker dequeue batch size")
	cmd.Flags().IntVar(&opts.hwEvery, "hw-every", 4, "Mark every Nth block hardware-owned (0 disables)")
	return cmd
}

func loadSimConfig(path string) (control.Config, error) {
	if path == "" {
		cfg := control.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return control.LoadConfig(path)
}

// pipeline holds the components shared by the three stages.
type pipeline struct {
	log     *slog.Logger
	pool    *pool.BitmapPool
	queue   *pool.PoolQueue
	ring    *cqueue.Queue
	gate    *flowctl.Gate
	spill   *flowctl.Spiller
	credits *flowctl.Credits
	ctrl    *adapters.ControlAdapter

	configPath string
	reload     <-chan os.Signal

	producerDone atomic.Bool
	workerDone   atomic.Bool
	corrupt      atomic.Uint64
	recycled     atomic.Uint64
}

func runSim(ctx context.Context, opts simOptions, logOut io.Writer) (*simReport, error) {
	if opts.items <= 0 {
		return nil, fmt.Errorf("--items must be positive, got %d", opts.items)
	}
	if opts.batch <= 0 {
		opts.batch = 1
	}
	cfg, err := loadSimConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Pool.CriticalSection == "noop" {
		return nil, errors.New("sim runs stages concurrently; pool.critical_section must not be noop")
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log, err := control.NewLoggerFormat(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return nil, err
	}
	if cfg.Pool.QueueCapacity == 0 {
		cfg.Pool.QueueCapacity = cfg.Pool.Blocks
	}

	p, q, err := adapters.NewPool("sim", cfg.Pool, log)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	ring, err := adapters.NewRing(cfg.Ring, log.With("ring", "recycle"))
	if err != nil {
		return nil, err
	}

	pl := &pipeline{
		log:     log,
		pool:    p,
		queue:   q,
		ring:    ring,
		gate:    flowctl.NewGate(ring, cfg.Flow.ThrottlePerSec, cfg.Flow.Burst),
		spill:   flowctl.NewSpiller(ring, cfg.Flow.SpillLimit),
		credits: flowctl.NewCredits(cfg.Flow.Credits),
		ctrl:    adapters.NewControlAdapter(),

		configPath: opts.configPath,
	}
	if opts.configPath != "" {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		pl.reload = hup
	}
	pl.ctrl.Watch("sim", p, q, ring)
	if err := pl.ctrl.SetConfig(cfg.Flatten()); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	metricsAddr := opts.metricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}
	var served string
	if metricsAddr != "" {
		if served, err = serveMetrics(gctx, g, metricsAddr, cfg.Metrics.Namespace, pl); err != nil {
			return nil, err
		}
	}

	log.Info("sim starting",
		"items", opts.items,
		"block_size", p.BlockSize(),
		"blocks", p.BlockCount(),
		"queue_cap", q.Cap(),
		"ring_size", ring.Size())

	start := time.Now()
	stages, sctx := errgroup.WithContext(gctx)
	stages.Go(func() error { return pl.produce(sctx, opts.items, opts.hwEvery) })
	stages.Go(func() error { return pl.work(sctx, opts.batch, opts.pinCPU) })
	stages.Go(func() error { return pl.recycle(sctx) })
	stages.Go(func() error { return pl.publish(sctx) })
	stageErr := stages.Wait()
	elapsed := time.Since(start)

	cancel()
	if err := g.Wait(); err != nil && stageErr == nil {
		stageErr = err
	}
	if stageErr != nil {
		return nil, stageErr
	}

	pl.ctrl.Publish("sim", p, q, ring)
	report := &simReport{
		Items:       opts.items,
		Elapsed:     elapsed,
		ItemsPerSec: float64(opts.items) / elapsed.Seconds(),
		Corrupt:     pl.corrupt.Load(),
		Recycled:    pl.recycled.Load(),
		Spilled:     pl.spill.Spilled(),
		Replayed:    pl.spill.Replayed(),
		Throttled:   pl.gate.Throttled(),
		Pool:        p.Stats(),
		Queue:       q.Stats(),
		Ring:        ring.Stats(),
		RingState:   ring.State().String(),
		MetricsAddr: served,
		Config:      cfg,
		Published:   pl.ctrl.Stats(),
	}
	log.Info("sim finished", "elapsed", elapsed, "available", report.Pool.Available, "corrupt", report.Corrupt)
	return report, nil
}

// produce allocates, stamps and queues items blocks.
func (pl *pipeline) produce(ctx context.Context, items, hwEvery int) error {
	defer pl.producerDone.Store(true)
	for seq := 0; seq < items; seq++ {
		if err := pl.credits.Acquire(ctx, 1); err != nil {
			return err
		}
		blk, err := pl.allocRetry(ctx, hwEvery > 0 && seq%hwEvery == 0)
		if err != nil {
			return err
		}
		stamp(blk, uint64(seq))
		for {
			err := pl.queue.Enqueue(blk)
			if err == nil {
				break
			}
			if !errors.Is(err, pool.ErrQueueFull) {
				return fmt.Errorf("enqueue seq %d: %w", seq, err)
			}
			if err := yield(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (pl *pipeline) allocRetry(ctx context.Context, forHW bool) ([]byte, error) {
	for {
		blk, err := pl.pool.Alloc(forHW)
		if err == nil {
			return blk, nil
		}
		if !errors.Is(err, pool.ErrPoolExhausted) {
			return nil, err
		}
		if err := yield(ctx); err != nil {
			return nil, err
		}
	}
}

// work drains the PoolQueue in batches, checks each stamp and hands the block
// to the recycler through the ring.
func (pl *pipeline) work(ctx context.Context, batchSize, cpu int) error {
	defer pl.workerDone.Store(true)
	aff := adapters.NewAffinityAdapter()
	if err := aff.Pin(cpu); err != nil {
		pl.log.Warn("worker not pinned", "cpu", cpu, "err", err)
	} else {
		defer aff.Unpin()
	}

	batch := pool.NewBlockBatch(batchSize)
	var next uint64
	for {
		n := pl.queue.DequeueInto(batch, batchSize)
		if n == 0 {
			if pl.producerDone.Load() && pl.queue.IsEmpty() {
				return pl.drainSpill(ctx)
			}
			if _, err := pl.spill.Flush(); err != nil {
				return err
			}
			if err := yield(ctx); err != nil {
				return err
			}
			continue
		}
		for _, blk := range batch.Slice() {
			if seq, ok := readStamp(blk); ok {
				if seq != next {
					pl.corrupt.Add(1)
					pl.log.Error("out of order block", "want", next, "got", seq)
				}
				next = seq + 1
			}
			if err := pl.gate.Wait(ctx); err != nil {
				return err
			}
			if err := pl.offer(ctx, blk); err != nil {
				return err
			}
		}
		batch.Reset()
	}
}

func (pl *pipeline) offer(ctx context.Context, blk []byte) error {
	for {
		err := pl.spill.Offer(pl.pool.Addr(blk), len(blk))
		if err == nil {
			return nil
		}
		if !errors.Is(err, flowctl.ErrBacklogFull) {
			return err
		}
		if err := yield(ctx); err != nil {
			return err
		}
	}
}

func (pl *pipeline) drainSpill(ctx context.Context) error {
	for pl.spill.Pending() > 0 {
		if _, err := pl.spill.Flush(); err != nil {
			return err
		}
		if err := yield(ctx); err != nil {
			return err
		}
	}
	return nil
}

// recycle frees every block that comes back through the ring.
func (pl *pipeline) recycle(ctx context.Context) error {
	for {
		addr, _, err := pl.ring.Dequeue()
		if errors.Is(err, cqueue.ErrEmpty) {
			if pl.workerDone.Load() && pl.ring.IsEmpty() {
				return nil
			}
			if err := yield(ctx); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		blk, err := pl.pool.BlockAt(addr)
		if err != nil {
			return fmt.Errorf("recycle %#x: %w", addr, err)
		}
		if err := pl.pool.Free(blk); err != nil {
			return fmt.Errorf("recycle %#x: %w", addr, err)
		}
		pl.recycled.Add(1)
		pl.credits.Release(1)
	}
}

// publish mirrors component counters into the control adapter while the
// stages run, and re-reads the config file on SIGHUP.
func (pl *pipeline) publish(ctx context.Context) error {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pl.reload:
			// Geometry is fixed for the run; only the stored snapshot changes.
			_, _ = pl.ctrl.ApplyFile(pl.configPath, pl.log)
		case <-t.C:
			pl.ctrl.Publish("sim", pl.pool, pl.queue, pl.ring)
			if pl.workerDone.Load() && pl.ring.IsEmpty() {
				return nil
			}
		}
	}
}

// serveMetrics starts a promhttp server on addr until ctx is done and returns
// the address it listens on.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr, namespace string, pl *pipeline) (string, error) {
	collector := control.NewPoolCollector(namespace)
	collector.AddPool("sim", pl.pool)
	collector.AddQueue("sim", pl.queue)
	collector.AddRing("sim", pl.ring)
	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		return "", err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("metrics listener: %w", err)
	}
	srv := &http.Server{
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	pl.log.Info("serving metrics", "addr", ln.Addr().String())

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	return ln.Addr().String(), nil
}

func yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

func stamp(blk []byte, seq uint64) {
	if len(blk) >= 8 {
		binary.LittleEndian.PutUint64(blk, seq)
	}
}

func readStamp(blk []byte) (uint64, bool) {
	if len(blk) < 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(blk), true
}

func printSimReport(w io.Writer, r *simReport) error {
	if jsonOut {
		return printJSON(w, r)
	}
	fmt.Fprintf(w, "Simulation:\n")
	fmt.Fprintf(w, "  items:      %d in %s (%.0f/s)\n", r.Items, r.Elapsed.Round(time.Microsecond), r.ItemsPerSec)
	fmt.Fprintf(w, "  corrupt:    %d, recycled %d\n", r.Corrupt, r.Recycled)
	fmt.Fprintf(w, "Pool:\n")
	fmt.Fprintf(w, "  blocks:     %d x %d bytes, %d available\n", r.Pool.BlockCount, r.Pool.BlockSize, r.Pool.Available)
	fmt.Fprintf(w, "  allocs:     %d (failed %d), frees %d\n", r.Pool.TotalAllocs, r.Pool.FailedAllocs, r.Pool.TotalFrees)
	fmt.Fprintf(w, "Queue:\n")
	fmt.Fprintf(w, "  enqueued:   %d, dequeued %d, rejected %d\n", r.Queue.Enqueued, r.Queue.Dequeued, r.Queue.Rejected)
	fmt.Fprintf(w, "Ring:\n")
	fmt.Fprintf(w, "  state:      %s, backpressure %v\n", r.RingState, r.Ring.Backpressure)
	fmt.Fprintf(w, "  spilled:    %d, replayed %d, throttled %d\n", r.Spilled, r.Replayed, r.Throttled)
	return nil
}
