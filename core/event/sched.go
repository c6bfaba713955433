// File: core/event/sched.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FIFO schedulers and their drain loop.

package event

import (
	"github.com/momentics/hioload-rt/core/thread"
)

// SchedStats counts scheduler activity.
type SchedStats struct {
	Pushed   uint64
	Executed uint64
	Waits    uint64
}

// Scheduler is a FIFO of events plus at most one thread waiting for it.
type Scheduler struct {
	k       *Kernel
	first   *Event
	last    *Event
	n       int
	waiting *thread.Thread
	stats   SchedStats
}

// NewScheduler creates an empty scheduler.
func (k *Kernel) NewScheduler() *Scheduler {
	return &Scheduler{k: k}
}

// Len returns the number of queued events.
func (s *Scheduler) Len() int {
	defer s.k.critical()()
	return s.n
}

// Stats returns the scheduler counters.
func (s *Scheduler) Stats() SchedStats {
	defer s.k.critical()()
	return s.stats
}

// Get pops a free event carrying cb and arg, bound to sched (the current
// scheduler when nil). It returns nil when the pool is empty.
func (k *Kernel) Get(sched *Scheduler, cb Callback, arg any) *Event {
	if sched == nil {
		sched = k.Current()
	}
	defer k.critical()()
	ev := k.popFree()
	if ev == nil {
		return nil
	}
	ev.sched = sched
	ev.cb = cb
	ev.arg = arg
	ev.thread = nil
	ev.pending = false
	return ev
}

// GetBlocking pops a free event without callback, marked pending so that a
// thread can Wait for it.
func (k *Kernel) GetBlocking(sched *Scheduler) *Event {
	ev := k.Get(sched, nil, nil)
	if ev != nil {
		ev.pending = true
	}
	return ev
}

// Push appends ev to its scheduler and wakes the waiting thread, if any.
func (k *Kernel) Push(ev *Event) {
	defer k.critical()()
	if ev.state != StateInFlight {
		panic(contract("push of an event already on a list", ev))
	}
	ev.state = StateQueued
	ev.next = nil
	s := ev.sched
	if s.first == nil {
		s.first = ev
	} else {
		s.last.next = ev
	}
	s.last = ev
	s.n++
	s.stats.Pushed++
	if w := s.waiting; w != nil {
		s.waiting = nil
		k.threads.Ready(w)
	}
}

// PushCallback gets an event for cb and arg and pushes it.
func (k *Kernel) PushCallback(sched *Scheduler, cb Callback, arg any) error {
	ev := k.Get(sched, cb, arg)
	if ev == nil {
		return ErrNoEvents
	}
	k.Push(ev)
	return nil
}

// Execute drains sched (the current scheduler when nil) in FIFO order,
// including events pushed by the callbacks. With wait set and nothing
// queued, the caller sleeps until an event arrives.
func (k *Kernel) Execute(sched *Scheduler, wait bool) {
	if sched == nil {
		sched = k.Current()
	}
	k.execute(sched, wait, nil)
}

// execute stops waiting early once until completes, so that a thread
// unblocked without a push does not sleep forever.
func (k *Kernel) execute(s *Scheduler, wait bool, until *Event) {
	defer k.critical()()

	if s.first == nil && wait {
		s.stats.Waits++
		for s.first == nil {
			if (until != nil && !until.pending) || k.closed() {
				s.waiting = nil
				return
			}
			s.waiting = k.threads.Current()
			if k.threads.HasReady() {
				k.threads.Sleep()
			} else {
				k.irq.WaitForInterrupt()
				k.irq.Enable()
				k.irq.Disable()
			}
		}
		s.waiting = nil
	}

	for ev := s.first; ev != nil; ev = s.first {
		if ev.state != StateQueued {
			panic(contract("corrupted scheduler queue", ev))
		}
		s.first = ev.next
		if s.first == nil {
			s.last = nil
		}
		s.n--
		ev.next = nil
		ev.state = StateInFlight

		cb, arg, pending := ev.cb, ev.arg, ev.pending
		if !pending {
			k.pushFree(ev)
		}
		s.stats.Executed++
		if cb != nil {
			k.invoke(cb, arg)
		}
		if pending {
			k.unblock(ev)
		}
	}
}

func (k *Kernel) invoke(cb Callback, arg any) {
	k.irq.Enable()
	defer k.irq.Disable()
	cb(arg)
}
