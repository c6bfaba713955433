// File: internal/concurrency/fifo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded MPMC FIFO built on per-cell sequence numbers (Vyukov pattern).
// Used as the simulated dispatch FIFO of each cluster core and as the
// mailbox between foreign goroutines and a core's interrupt handler.

package concurrency

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-rt/api"
)

var _ api.FIFO[any] = (*FIFO[any])(nil)

type slot[T any] struct {
	seq  atomic.Uint64
	item T
}

// FIFO is a bounded multi-producer multi-consumer queue.
type FIFO[T any] struct {
	head  atomic.Uint64
	_     cpu.CacheLinePad
	tail  atomic.Uint64
	_     cpu.CacheLinePad
	mask  uint64
	slots []slot[T]
}

// NewFIFO creates a queue with capacity rounded up to a power of two.
func NewFIFO[T any](capacity int) *FIFO[T] {
	size := uint64(NextPowerOfTwo(uint32(max(capacity, 2))))
	q := &FIFO[T]{
		mask:  size - 1,
		slots: make([]slot[T], size),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// TryPush appends item; returns false if the queue is full.
func (q *FIFO[T]) TryPush(item T) bool {
	for {
		tail := q.tail.Load()
		s := &q.slots[tail&q.mask]
		dif := int64(s.seq.Load()) - int64(tail)
		switch {
		case dif == 0:
			if q.tail.CompareAndSwap(tail, tail+1) {
				s.item = item
				s.seq.Store(tail + 1)
				return true
			}
		case dif < 0:
			return false
		}
	}
}

// TryPop removes the oldest item; ok is false if the queue is empty.
func (q *FIFO[T]) TryPop() (item T, ok bool) {
	for {
		head := q.head.Load()
		s := &q.slots[head&q.mask]
		dif := int64(s.seq.Load()) - int64(head+1)
		switch {
		case dif == 0:
			if q.head.CompareAndSwap(head, head+1) {
				item = s.item
				var zero T
				s.item = zero
				s.seq.Store(head + q.mask + 1)
				return item, true
			}
		case dif < 0:
			return item, false
		}
	}
}

// Len returns the approximate number of queued items.
func (q *FIFO[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the fixed capacity.
func (q *FIFO[T]) Cap() int {
	return len(q.slots)
}

// NextPowerOfTwo rounds v up to a power of two (1 for 0).
func NextPowerOfTwo(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
