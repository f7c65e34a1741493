package control

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-mempool/api"
	"github.com/momentics/hioload-mempool/cqueue"
	"github.com/momentics/hioload-mempool/pool"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hiopool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	high, low := cfg.Ring.Watermarks()
	assert.Equal(t, 6, high)
	assert.Equal(t, 2, low)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
pool:
  block_size: 1500
  blocks: 128
  arena: mapped
ring:
  size: 32
log:
  level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.Pool.BlockSize)
	assert.Equal(t, 128, cfg.Pool.Blocks)
	assert.Equal(t, "mapped", cfg.Pool.Arena)
	assert.Equal(t, 64, cfg.Pool.Alignment, "default kept")
	assert.Equal(t, 32, cfg.Ring.Size)
	assert.True(t, cfg.Ring.Backpressure, "default kept")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeFile(t, `
pool:
  blocks: 0
  alignment: 48
  critical_section: rwlock
ring:
  size: 6
log:
  level: verbose
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	for _, field := range []string{"pool.blocks", "pool.alignment", "pool.critical_section", "ring.size", "log.level"} {
		assert.Contains(t, err.Error(), field)
	}

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "pool: [unterminated"))
	assert.Error(t, err)
}

func TestValidateWatermarks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ring.HighWatermark, cfg.Ring.LowWatermark = 2, 4
	assert.ErrorIs(t, cfg.Validate(), api.ErrInvalidArgument)

	cfg.Ring.HighWatermark, cfg.Ring.LowWatermark = 7, 1
	assert.NoError(t, cfg.Validate())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger("warning", &buf)
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log, err = NewLoggerFormat("info", "json", &buf)
	require.NoError(t, err)
	log.Info("msg")
	assert.Contains(t, buf.String(), `"msg":"msg"`)

	_, err = NewLoggerFormat("info", "xml", &buf)
	assert.Error(t, err)
}

func TestConfigStoreApplyNotifiesListeners(t *testing.T) {
	store := NewConfigStore()
	calls := 0
	store.OnReload(func() { calls++ })

	store.Apply(DefaultConfig())
	assert.Equal(t, 1, calls)
	v, ok := store.Get("ring.size")
	require.True(t, ok)
	assert.Equal(t, 8, v)

	snap := store.GetSnapshot()
	snap["ring.size"] = 99
	v, _ = store.Get("ring.size")
	assert.Equal(t, 8, v, "snapshot is a copy")
}

func TestReloadFromFile(t *testing.T) {
	store := NewConfigStore()
	hookRan := false
	RegisterReloadHook(func() { hookRan = true })

	_, err := ReloadFromFile(writeFile(t, "ring:\n  size: 16\n"), store, nil)
	require.NoError(t, err)
	assert.True(t, hookRan)
	v, _ := store.Get("ring.size")
	assert.Equal(t, 16, v)

	_, err = ReloadFromFile(writeFile(t, "ring:\n  size: 3\n"), store, nil)
	assert.Error(t, err)
	v, _ = store.Get("ring.size")
	assert.Equal(t, 16, v, "invalid file leaves the store untouched")
}

func TestProbesAndMetrics(t *testing.T) {
	p, err := pool.New(64, 4)
	require.NoError(t, err)
	defer p.Close()
	q, err := pool.NewQueue(p, 4)
	require.NoError(t, err)
	r, err := cqueue.New(8)
	require.NoError(t, err)

	blk, err := p.Alloc(true)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(blk))
	require.NoError(t, r.EnqueueBytes(blk))

	dp := NewDebugProbes()
	RegisterPoolProbes(dp, "rx", p)
	RegisterQueueProbes(dp, "rx", q)
	RegisterRingProbes(dp, "rx", r)
	RegisterPlatformProbes(dp)

	state := dp.DumpState()
	stats := state["pool.rx.stats"].(api.PoolStats)
	assert.Equal(t, 3, stats.Available)
	assert.Equal(t, 1, stats.HardwareOwned)
	assert.Equal(t, 1, state["queue.rx.stats"].(api.QueueStats).Len)
	assert.Equal(t, "partial", state["ring.rx.state"])
	assert.Len(t, state["pool.rx.bitmap"], 1)
	assert.Contains(t, dp.Names(), "platform.cpus")

	mr := NewMetricsRegistry()
	mr.PublishPool("pool.rx", p.Stats())
	mr.PublishQueue("queue.rx", q.Stats())
	mr.PublishRing("ring.rx", r.Stats())
	snap := mr.GetSnapshot()
	assert.Equal(t, 1, snap["pool.rx.used"])
	assert.Equal(t, uint64(1), snap["queue.rx.enqueued"])
	assert.Equal(t, false, snap["ring.rx.backpressure"])
	assert.False(t, mr.Updated().IsZero())
}

func TestPoolCollector(t *testing.T) {
	p, err := pool.New(64, 8)
	require.NoError(t, err)
	defer p.Close()
	q, err := pool.NewQueue(p, 8)
	require.NoError(t, err)
	r, err := cqueue.New(4)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		blk, err := p.Alloc(false)
		require.NoError(t, err)
		require.NoError(t, r.EnqueueBytes(blk))
	}

	c := NewPoolCollector("test")
	c.AddPool("rx", p)
	c.AddQueue("rx", q)
	c.AddRing("rx", r)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if g := m.GetGauge(); g != nil {
				values[mf.GetName()] = g.GetValue()
			}
		}
	}
	assert.Equal(t, 8.0, values["test_pool_blocks"])
	assert.Equal(t, 5.0, values["test_pool_available_blocks"])
	assert.Equal(t, 3.0, values["test_ring_depth"])
	assert.Equal(t, 3.0, values["test_ring_capacity"])
	assert.Equal(t, 1.0, values["test_ring_backpressure"])
	assert.Equal(t, 0.0, values["test_queue_depth"])
}
