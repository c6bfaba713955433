// File: core/eu/dispatch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-core dispatch FIFOs feeding the cluster wake loop.

package eu

import (
	"sync/atomic"

	"github.com/momentics/hioload-rt/internal/concurrency"
)

type coreFIFO struct {
	q      *concurrency.FIFO[any]
	notify chan struct{}
}

// dispatcher has a single producer per core: the region master.
type dispatcher struct {
	cores  []coreFIFO
	done   chan struct{}
	closed atomic.Bool
}

func newDispatcher(ncores, depth int) *dispatcher {
	d := &dispatcher{
		cores: make([]coreFIFO, ncores),
		done:  make(chan struct{}),
	}
	for i := range d.cores {
		d.cores[i] = coreFIFO{
			q:      concurrency.NewFIFO[any](depth),
			notify: make(chan struct{}, 1),
		}
	}
	return d
}

// Push appends words to the FIFO of every core in mask, stalling while a
// FIFO is full.
func (d *dispatcher) Push(mask uint32, words ...any) {
	for c := 0; mask != 0 && c < len(d.cores); c, mask = c+1, mask>>1 {
		if mask&1 == 0 {
			continue
		}
		f := &d.cores[c]
		for _, w := range words {
			var b concurrency.Backoff
			for !f.q.TryPush(w) {
				if d.closed.Load() {
					return
				}
				b.Wait()
			}
			// A parked consumer must drain before a full FIFO accepts more.
			f.wake()
		}
	}
}

func (f *coreFIFO) wake() {
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Pop blocks until a word is available for core.
func (d *dispatcher) Pop(core int) (any, bool) {
	f := &d.cores[core]
	for {
		if w, ok := f.q.TryPop(); ok {
			return w, true
		}
		if d.closed.Load() {
			return nil, false
		}
		select {
		case <-f.notify:
		case <-d.done:
		}
	}
}

func (d *dispatcher) close() {
	if d.closed.CompareAndSwap(false, true) {
		close(d.done)
	}
}
