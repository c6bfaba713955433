package facade_test

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/core/omp"
	"github.com/momentics/hioload-rt/facade"
	"github.com/momentics/hioload-rt/fake"
)

func testConfig(buf *bytes.Buffer) *facade.Config {
	cfg := facade.DefaultConfig()
	cfg.Platform.Cores = 4
	cfg.Platform.Events = 4
	cfg.Platform.LogLevel = "debug"
	cfg.LogWriter = buf
	return cfg
}

// Full lifecycle: boot, foreign task submission, fork-join region, power
// cycle, probes and shutdown.
func TestRuntimeLifecycle(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig(&logs)
	counter := &fake.Counter{}
	cfg.Counter = counter

	rt, err := facade.Boot(cfg)
	require.NoError(t, err)
	require.NoError(t, rt.Start(context.Background()))
	require.NoError(t, rt.Start(context.Background()))

	executed := make(chan struct{})
	go func() {
		assert.NoError(t, rt.Submit(func() { close(executed) }))
	}()
	select {
	case <-executed:
		t.Fatal("task ran off the control core")
	case <-time.After(5 * time.Millisecond):
	}
	rt.Kernel().Execute(nil, true)
	select {
	case <-executed:
	default:
		t.Fatal("executor failed to run task")
	}

	var sum atomic.Int64
	rt.Cluster().Master().ParallelRegion(func(c *omp.Core, _ any) {
		for s, e, ok := c.DynLoopInit(1, 101, 1, 7); ok; s, e, ok = c.DynLoopIter() {
			for i := s; i < e; i++ {
				sum.Add(int64(i))
			}
		}
	}, nil, 0)
	assert.Equal(t, int64(5050), sum.Load())

	counter.SetCount64(3 * cfg.Platform.RefClockHz)
	require.NoError(t, rt.PowerOff())
	counter.SetCount64(0)
	require.NoError(t, rt.PowerOn())
	assert.Equal(t, uint64(3_000_000), rt.Timer().NowMicros())

	rt.PublishStats()
	stats := rt.Control().Stats()
	assert.Equal(t, 4, stats["event.allocated"])
	assert.Equal(t, uint64(1), stats["sched.executed"])

	b, err := rt.Control().DumpJSON()
	require.NoError(t, err)
	var probes map[string]any
	require.NoError(t, sonnet.Unmarshal(b, &probes))
	assert.Contains(t, probes, "pool.domains")
	assert.Contains(t, probes, "irq")

	require.NoError(t, rt.Stop())
	require.NoError(t, rt.Stop())
	assert.ErrorIs(t, rt.Submit(func() {}), api.ErrClosed)
	assert.Contains(t, logs.String(), "runtime booted")
}

func TestBootRejectsInvalidPlatform(t *testing.T) {
	cfg := facade.DefaultConfig()
	cfg.Platform.Cores = 0
	_, err := facade.Boot(cfg)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestBootFailsOnEventBudget(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig(&logs)
	cfg.Platform.FCHeapBytes = 64
	cfg.Platform.Events = 8
	_, err := facade.Boot(cfg)
	assert.ErrorIs(t, err, api.ErrResourceExhausted)
}

func TestLegacyPlatform(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig(&logs)
	cfg.Platform.EventUnitVersion = 2
	rt, err := facade.Boot(cfg)
	require.NoError(t, err)
	require.NoError(t, rt.Start(context.Background()))
	defer func() { require.NoError(t, rt.Stop()) }()

	count := 0
	rt.Cluster().Master().ParallelRegion(func(c *omp.Core, _ any) {
		c.CriticalStart()
		count++
		c.CriticalEnd()
	}, nil, 0)
	assert.Equal(t, 4, count)
	assert.Equal(t, 2, rt.OMP().EventUnit().Version())
}
