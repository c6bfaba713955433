package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFO_Order(t *testing.T) {
	q := NewFIFO[int](4)
	require.Equal(t, 4, q.Cap())
	for i := 1; i <= 4; i++ {
		require.True(t, q.TryPush(i))
	}
	assert.False(t, q.TryPush(5), "push into full queue")
	assert.Equal(t, 4, q.Len())
	for i := 1; i <= 4; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestFIFO_CapacityRounding(t *testing.T) {
	assert.Equal(t, 2, NewFIFO[int](0).Cap())
	assert.Equal(t, 8, NewFIFO[int](5).Cap())
	assert.Equal(t, uint32(1), NextPowerOfTwo(0))
	assert.Equal(t, uint32(64), NextPowerOfTwo(64))
}

func TestFIFO_MPMC(t *testing.T) {
	q := NewFIFO[int](256)
	const producers, consumers, perProducer = 8, 8, 5000

	var sent, received, count atomic.Int64
	total := int64(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := pid*perProducer + i + 1
				for !q.TryPush(v) {
					runtime.Gosched()
				}
				sent.Add(int64(v))
			}
		}(p)
	}

	var cwg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for count.Load() < total {
				if v, ok := q.TryPop(); ok {
					received.Add(int64(v))
					count.Add(1)
					continue
				}
				runtime.Gosched()
			}
		}()
	}

	wg.Wait()
	done := make(chan struct{})
	go func() { cwg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("timeout: received %d/%d", count.Load(), total)
	}
	assert.Equal(t, sent.Load(), received.Load())
}

func TestSpinMutex_Exclusion(t *testing.T) {
	var m SpinMutex
	var wg sync.WaitGroup
	counter := 0
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				m.Lock()
				counter++
				m.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, counter)

	require.True(t, m.TryLock())
	assert.False(t, m.TryLock())
	m.Unlock()
	assert.Panics(t, func() { m.Unlock() })
}

func TestBackoff_Escalates(t *testing.T) {
	var b Backoff
	for i := 0; i < 2*spinRounds+3; i++ {
		b.Wait()
	}
	assert.Greater(t, b.sleepNs, int64(1000))
	b.Reset()
	assert.Zero(t, b.rounds)
	assert.Zero(t, b.sleepNs)
}
