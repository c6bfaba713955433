package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/core/irq"
	"github.com/momentics/hioload-rt/core/thread"
	"github.com/momentics/hioload-rt/fake"
)

type testCore struct {
	irq     *irq.Controller
	threads *thread.Runtime
	alloc   *fake.Allocator
	k       *Kernel
}

func newTestCore(t *testing.T, budget int) *testCore {
	t.Helper()
	c := irq.New()
	r := thread.New(c)
	a := fake.NewAllocator(budget)
	return &testCore{irq: c, threads: r, alloc: a, k: NewKernel(c, r, a)}
}

func requireContractPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		v := recover()
		require.NotNil(t, v, "expected a contract panic")
		assert.True(t, api.IsContract(v), "panic value %v", v)
	}()
	fn()
}

func TestFIFOOrderIncludingPushDuringDrain(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 8))

	var order []int
	record := func(arg any) { order = append(order, arg.(int)) }
	for i := 1; i <= 3; i++ {
		require.NoError(t, k.PushCallback(nil, record, i))
	}
	require.NoError(t, k.PushCallback(nil, func(any) {
		order = append(order, 4)
		require.NoError(t, k.PushCallback(nil, record, 6))
	}, nil))
	require.NoError(t, k.PushCallback(nil, record, 5))

	assert.Equal(t, 5, k.Default().Len())
	k.Execute(nil, false)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, order)
	assert.Zero(t, k.Default().Len())
	assert.Equal(t, 8, k.Available())
	assert.True(t, tc.irq.Enabled())

	st := k.Default().Stats()
	assert.Equal(t, uint64(6), st.Pushed)
	assert.Equal(t, uint64(6), st.Executed)
}

func TestCallbackRunsUnmasked(t *testing.T) {
	tc := newTestCore(t, 0)
	require.NoError(t, tc.k.Alloc(nil, 1))
	var enabled bool
	require.NoError(t, tc.k.PushCallback(nil, func(any) { enabled = tc.irq.Enabled() }, nil))
	s := tc.irq.Disable()
	tc.k.Execute(nil, false)
	assert.True(t, enabled)
	assert.False(t, tc.irq.Enabled())
	tc.irq.Restore(s)
}

func TestExhaustionSentinel(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 2))

	a := k.Get(nil, nil, nil)
	b := k.Get(nil, nil, nil)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotSame(t, a, b)
	assert.Nil(t, k.Get(nil, nil, nil))
	assert.Nil(t, k.GetBlocking(nil))

	err := k.PushCallback(nil, func(any) {}, nil)
	assert.ErrorIs(t, err, ErrNoEvents)
	assert.ErrorIs(t, err, api.ErrResourceExhausted)
	assert.True(t, tc.irq.Enabled(), "failure path restores the mask")

	st := k.Stats()
	assert.Equal(t, PoolStats{Allocated: 2, Free: 0, InUse: 2}, st)
}

func TestAllocAllOrNothing(t *testing.T) {
	tc := newTestCore(t, 3*EventSize)
	k := tc.k

	err := k.Alloc(nil, 4)
	assert.ErrorIs(t, err, api.ErrResourceExhausted)
	assert.Zero(t, k.Available())
	assert.Zero(t, tc.alloc.Live())
	assert.Equal(t, uint64(1), k.Stats().AllocFailures)

	require.NoError(t, k.Alloc(nil, 3))
	assert.Equal(t, 3*EventSize, tc.alloc.Live())
}

func TestFreeUnderflow(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 2))

	assert.ErrorIs(t, k.Free(3), ErrFreeUnderflow)
	assert.Equal(t, 2, k.Available())

	require.NoError(t, k.Free(2))
	assert.Zero(t, k.Available())
	assert.Zero(t, tc.alloc.Live())
	_, frees, _ := tc.alloc.Counts()
	assert.Equal(t, 2, frees)
}

func TestPendingEventStaysOutOfPool(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 2))

	ev := k.GetBlocking(nil)
	require.NotNil(t, ev)
	assert.True(t, ev.Pending())
	k.Push(ev)
	assert.Equal(t, StateQueued, ev.State())

	k.Execute(nil, false)
	assert.Equal(t, StateInFlight, ev.State())
	assert.False(t, ev.Pending())
	assert.Equal(t, 1, k.Available(), "completed blocking event is not freed before the waiter")

	k.Wait(ev)
	assert.Equal(t, StateFree, ev.State())
	assert.Equal(t, 2, k.Available())
}

func TestReusedEventIsNotUnblocked(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 1))

	first := k.Get(nil, nil, nil)
	var reused *Event
	first.cb = func(any) { reused = k.GetBlocking(nil) }
	k.Push(first)
	k.Execute(nil, false)

	require.Same(t, first, reused, "LIFO free list hands back the same event")
	assert.True(t, reused.Pending(), "completion of the old event must not touch the new one")
}

func TestWaitWakesOnPushFromAnotherThread(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 4))

	ev := k.GetBlocking(nil)
	done := false
	waiter := tc.threads.Spawn("waiter", func() {
		k.Wait(ev)
		done = true
	})

	tc.threads.Yield()
	assert.False(t, done, "waiter is asleep on an empty scheduler")

	k.Push(ev)
	tc.threads.Yield()
	<-waiter.Done()
	assert.True(t, done)
	assert.Equal(t, 4, k.Available())
	assert.Equal(t, uint64(1), k.Default().Stats().Waits)
}

func TestWaitReturnsWhenQueuedCallbackUnblocks(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 8))

	ev := k.GetBlocking(nil)
	var order []int
	record := func(arg any) { order = append(order, arg.(int)) }
	for i := 0; i < 3; i++ {
		require.NoError(t, k.PushCallback(nil, record, i))
	}
	require.NoError(t, k.PushCallback(nil, func(any) { k.Unblock(ev) }, nil))
	require.NoError(t, k.PushCallback(nil, record, 9))

	k.Wait(ev)
	assert.Equal(t, []int{0, 1, 2, 9}, order)
	assert.Equal(t, StateFree, ev.State())
	assert.Equal(t, 8, k.Available())
	assert.Zero(t, k.Default().Len())
}

func TestWaitWakesOnInterruptUnblock(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 1))

	dev := fake.NewDevice(tc.irq, 5)
	require.NoError(t, tc.irq.SetHandler(dev.Line(), func(int) {
		for _, req := range dev.Drain() {
			k.Unblock(req.(*Event))
		}
	}))

	ev := k.GetBlocking(nil)
	go func() {
		time.Sleep(10 * time.Millisecond)
		assert.NoError(t, dev.Submit(ev))
	}()

	finished := make(chan struct{})
	go func() {
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			tc.irq.Close()
		}
	}()
	k.Wait(ev)
	close(finished)
	assert.False(t, tc.irq.Closed())
	assert.Equal(t, 1, k.Available())
}

func TestExecuteWaitServicesInterruptPush(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 2))

	dev := fake.NewDevice(tc.irq, 9)
	var got []any
	require.NoError(t, tc.irq.SetHandler(dev.Line(), func(int) {
		for _, req := range dev.Drain() {
			require.NoError(t, k.PushCallback(nil, func(arg any) { got = append(got, arg) }, req))
		}
	}))
	go func() {
		time.Sleep(10 * time.Millisecond)
		assert.NoError(t, dev.Submit("rx"))
	}()

	k.Execute(nil, true)
	assert.Equal(t, []any{"rx"}, got)
}

func TestPerThreadScheduler(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	s := k.NewScheduler()
	assert.Same(t, k.Default(), k.Current())
	k.SetCurrent(s)
	assert.Same(t, s, k.Current())

	require.NoError(t, k.Alloc(nil, 1))
	ev := k.Get(nil, nil, nil)
	assert.Same(t, s, ev.Scheduler())
	k.Push(ev)
	assert.Equal(t, 1, s.Len())
	assert.Zero(t, k.Default().Len())
	k.Execute(nil, false)

	k.SetCurrent(nil)
	assert.Same(t, k.Default(), k.Current())
}

func TestContractViolations(t *testing.T) {
	tc := newTestCore(t, 0)
	k := tc.k
	require.NoError(t, k.Alloc(nil, 2))

	ev := k.Get(nil, nil, nil)
	k.Push(ev)
	requireContractPanic(t, func() { k.Push(ev) })

	k.Execute(nil, false)
	assert.Equal(t, StateFree, ev.State())
	requireContractPanic(t, func() { k.Wait(ev) })
	requireContractPanic(t, func() { k.Push(ev) })
	assert.True(t, tc.irq.Enabled(), "panics unwind the mask")
}
