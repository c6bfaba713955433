package omp_test

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/core/cluster"
	"github.com/momentics/hioload-rt/core/eu"
	"github.com/momentics/hioload-rt/core/omp"
)

var units = map[string]func(n int) (api.EventUnit, error){
	"v3":     func(n int) (api.EventUnit, error) { return eu.New(n) },
	"legacy": func(n int) (api.EventUnit, error) { return eu.NewLegacy(n) },
}

func startCluster(t *testing.T, mk func(int) (api.EventUnit, error), n int) *cluster.Cluster {
	t.Helper()
	unit, err := mk(n)
	require.NoError(t, err)
	rt, err := omp.New(unit, 1<<n-1)
	require.NoError(t, err)
	cl := cluster.New(rt)
	require.NoError(t, cl.Start(context.Background()))
	t.Cleanup(func() { assert.NoError(t, cl.Stop()) })
	return cl
}

func forEachUnit(t *testing.T, fn func(t *testing.T, cl *cluster.Cluster)) {
	for name, mk := range units {
		t.Run(name, func(t *testing.T) { fn(t, startCluster(t, mk, 4)) })
	}
}

func seq(start, end, step int) []int {
	var out []int
	for i := start; i < end; i += step {
		out = append(out, i)
	}
	return out
}

func TestDynamicLoopExclusivity(t *testing.T) {
	forEachUnit(t, func(t *testing.T, cl *cluster.Cluster) {
		var mu sync.Mutex
		perCore := map[int][]int{}
		body := func(c *omp.Core, _ any) {
			var mine []int
			for s, e, ok := c.DynLoopInit(0, 100, 1, 10); ok; s, e, ok = c.DynLoopIter() {
				assert.LessOrEqual(t, e-s, 10)
				for i := s; i < e; i++ {
					mine = append(mine, i)
				}
			}
			mu.Lock()
			perCore[c.ID()] = append(perCore[c.ID()], mine...)
			mu.Unlock()
		}
		master := cl.Master()
		for round := 0; round < 5; round++ {
			perCore = map[int][]int{}
			master.ParallelRegion(body, nil, 4)

			var all []int
			for _, idx := range perCore {
				all = append(all, idx...)
			}
			sort.Ints(all)
			if diff := cmp.Diff(seq(0, 100, 1), all); diff != "" {
				t.Fatalf("round %d: claimed indices mismatch (-want +got):\n%s", round, diff)
			}
		}
	})
}

func TestDynamicLoopStride(t *testing.T) {
	forEachUnit(t, func(t *testing.T, cl *cluster.Cluster) {
		var mu sync.Mutex
		var all []int
		cl.Master().ParallelRegion(func(c *omp.Core, _ any) {
			for s, e, ok := c.DynLoopInit(0, 30, 3, 2); ok; s, e, ok = c.DynLoopIter() {
				mu.Lock()
				for i := s; i < e; i += 3 {
					all = append(all, i)
				}
				mu.Unlock()
			}
		}, nil, 0)
		sort.Ints(all)
		if diff := cmp.Diff(seq(0, 30, 3), all); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})
}

func TestBarrierAllArrive(t *testing.T) {
	forEachUnit(t, func(t *testing.T, cl *cluster.Cluster) {
		var arrived atomic.Int32
		var early atomic.Int32
		cl.Master().ParallelRegion(func(c *omp.Core, _ any) {
			for phase := int32(1); phase <= 10; phase++ {
				arrived.Add(1)
				c.Barrier()
				if arrived.Load() < phase*int32(c.NumThreads()) {
					early.Add(1)
				}
				c.Barrier()
			}
		}, nil, 4)
		assert.Equal(t, int32(40), arrived.Load())
		assert.Zero(t, early.Load())
	})
}

func TestSingleExclusivity(t *testing.T) {
	forEachUnit(t, func(t *testing.T, cl *cluster.Cluster) {
		var winners atomic.Int32
		for i := 0; i < 8; i++ {
			cl.Master().ParallelRegion(func(c *omp.Core, _ any) {
				if c.SingleStart() {
					winners.Add(1)
				}
				c.Barrier()
				if c.SingleStart() {
					winners.Add(1)
				}
			}, nil, 4)
		}
		assert.Equal(t, int32(16), winners.Load())
	})
}

func TestCriticalSection(t *testing.T) {
	forEachUnit(t, func(t *testing.T, cl *cluster.Cluster) {
		counter := 0
		cl.Master().ParallelRegion(func(c *omp.Core, data any) {
			n := data.(int)
			for i := 0; i < n; i++ {
				c.UserCriticalStart()
				counter++
				c.UserCriticalEnd()
			}
			c.UserBarrier()
		}, 1000, 4)
		assert.Equal(t, 4000, counter)
	})
}

func TestPartialRegion(t *testing.T) {
	forEachUnit(t, func(t *testing.T, cl *cluster.Cluster) {
		var mu sync.Mutex
		var ran []int
		var all []int
		body := func(c *omp.Core, _ any) {
			assert.Equal(t, 2, c.NumThreads())
			var mine []int
			for s, e, ok := c.DynLoopInit(0, 20, 1, 3); ok; s, e, ok = c.DynLoopIter() {
				for i := s; i < e; i++ {
					mine = append(mine, i)
				}
			}
			c.Barrier()
			mu.Lock()
			ran = append(ran, c.GetThreadNum())
			all = append(all, mine...)
			mu.Unlock()
		}
		cl.Master().ParallelRegion(body, nil, 2)
		sort.Ints(ran)
		assert.Equal(t, []int{0, 1}, ran)
		sort.Ints(all)
		assert.Empty(t, cmp.Diff(seq(0, 20, 1), all))

		// A full region afterwards still involves every core.
		var count atomic.Int32
		cl.Master().ParallelRegion(func(c *omp.Core, _ any) {
			count.Add(1)
			for _, _, ok := c.DynLoopInit(0, 8, 1, 1); ok; _, _, ok = c.DynLoopIter() {
			}
		}, nil, 0)
		assert.Equal(t, int32(4), count.Load())
	})
}

func TestSections(t *testing.T) {
	forEachUnit(t, func(t *testing.T, cl *cluster.Cluster) {
		var mu sync.Mutex
		var got []int
		cl.Master().ParallelRegion(func(c *omp.Core, _ any) {
			for s := c.SectionInit(6); s != 0; s = c.SectionGet() {
				mu.Lock()
				got = append(got, s)
				mu.Unlock()
			}
		}, nil, 4)
		sort.Ints(got)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)
	})
}

func TestLoneCoreInitSingle(t *testing.T) {
	unit, err := eu.New(1)
	require.NoError(t, err)
	rt, err := omp.New(unit, 1)
	require.NoError(t, err)
	c := rt.Core(0)
	c.DynLoopInitSingle(5, 9, 1, 2)
	var got []int
	for s, e, ok := c.DynLoopIter(); ok; s, e, ok = c.DynLoopIter() {
		got = append(got, s, e)
	}
	assert.Equal(t, []int{5, 7, 7, 9}, got)
}

func TestRuntimeValidation(t *testing.T) {
	unit, err := eu.New(4)
	require.NoError(t, err)
	_, err = omp.New(unit, 0)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = omp.New(unit, 1<<5)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	rt, err := omp.New(unit, 0b1111)
	require.NoError(t, err)
	assert.Equal(t, 4, rt.NumCores())
	assert.Equal(t, 4, rt.PlainTeam().NumThreads())
	assert.Panics(t, func() { rt.Core(0).PartialParallelRegion(func(*omp.Core, any) {}, nil, 0) })
}

func TestInvalidLoopStepLeavesLoopUsable(t *testing.T) {
	unit, err := eu.New(2)
	require.NoError(t, err)
	rt, err := omp.New(unit, 0b11)
	require.NoError(t, err)

	assert.Panics(t, func() { rt.Core(1).DynLoopInit(0, 10, 1, 0) })
	assert.Panics(t, func() { rt.Core(1).DynLoopInitSingle(0, 10, -1, 1) })

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for id := 0; id < 2; id++ {
		wg.Add(1)
		go func(c *omp.Core) {
			defer wg.Done()
			for s, e, ok := c.DynLoopInit(0, 8, 1, 1); ok; s, e, ok = c.DynLoopIter() {
				mu.Lock()
				for i := s; i < e; i++ {
					got = append(got, i)
				}
				mu.Unlock()
			}
		}(rt.Core(id))
	}
	wg.Wait()
	sort.Ints(got)
	assert.Equal(t, seq(0, 8, 1), got)
}
