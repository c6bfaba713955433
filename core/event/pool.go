// File: core/event/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Preallocated event storage: a LIFO free list local to the core.

package event

import (
	"fmt"
)

// PoolStats is a snapshot of the event pool.
type PoolStats struct {
	Allocated     int
	Free          int
	InUse         int
	AllocFailures uint64
}

// Alloc adds n events bound to sched (the current scheduler when nil) to
// the free list. Either all n are added or none; a failure wraps
// api.ErrResourceExhausted.
func (k *Kernel) Alloc(sched *Scheduler, n int) error {
	if n <= 0 {
		return nil
	}
	if sched == nil {
		sched = k.Current()
	}
	defer k.critical()()

	events := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		block, err := k.alloc.Alloc(k.domain, EventSize)
		if err != nil {
			for _, ev := range events {
				k.alloc.Free(k.domain, ev.block)
			}
			k.fails++
			k.log.Warning().Int("requested", n).Int("obtained", i).Err(err).Log("event allocation failed")
			return fmt.Errorf("event: alloc %d events: %w", n, err)
		}
		events = append(events, &Event{sched: sched, block: block, state: stateReleased})
	}
	for _, ev := range events {
		k.pushFree(ev)
	}
	k.nalloc += n
	k.log.Debug().Int("added", n).Int("free", k.nfree).Log("event pool grown")
	return nil
}

// Free releases n events from the free list back to the allocator.
func (k *Kernel) Free(n int) error {
	defer k.critical()()
	if n > k.nfree {
		return fmt.Errorf("%w: requested %d, free %d", ErrFreeUnderflow, n, k.nfree)
	}
	for i := 0; i < n; i++ {
		ev := k.popFree()
		ev.state = stateReleased
		ev.sched = nil
		k.alloc.Free(k.domain, ev.block)
		ev.block = nil
	}
	k.nalloc -= n
	return nil
}

// Available returns the length of the free list.
func (k *Kernel) Available() int {
	defer k.critical()()
	return k.nfree
}

// Stats returns a pool snapshot.
func (k *Kernel) Stats() PoolStats {
	defer k.critical()()
	return PoolStats{
		Allocated:     k.nalloc,
		Free:          k.nfree,
		InUse:         k.nalloc - k.nfree,
		AllocFailures: k.fails,
	}
}

// pushFree must be called masked.
func (k *Kernel) pushFree(ev *Event) {
	if ev.state != StateInFlight && ev.state != stateReleased {
		panic(contract("free of an event on a list", ev))
	}
	ev.state = StateFree
	ev.cb = nil
	ev.arg = nil
	ev.thread = nil
	ev.pending = false
	ev.next = k.free
	k.free = ev
	k.nfree++
}

// popFree must be called masked. It returns nil on an empty list.
func (k *Kernel) popFree() *Event {
	ev := k.free
	if ev == nil {
		return nil
	}
	if ev.state != StateFree {
		panic(contract("corrupted free list", ev))
	}
	k.free = ev.next
	ev.next = nil
	ev.state = StateInFlight
	k.nfree--
	return ev
}
