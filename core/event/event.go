// File: core/event/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event object and the Kernel context owning pool and schedulers.

package event

import (
	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/core/thread"
	"github.com/momentics/hioload-rt/internal/logging"
)

// EventSize is the storage footprint of one event in the block allocator.
const EventSize = 32

// Callback is run when an event is executed.
type Callback func(arg any)

// State tells which list, if any, an event is on.
type State uint8

const (
	// StateFree: on the pool free list.
	StateFree State = iota
	// StateQueued: on a scheduler FIFO.
	StateQueued
	// StateInFlight: owned by the application or a waiter, on no list.
	StateInFlight
	stateReleased
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateQueued:
		return "queued"
	case StateInFlight:
		return "in-flight"
	case stateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event is one deferred unit of work.
type Event struct {
	sched   *Scheduler
	cb      Callback
	arg     any
	next    *Event
	pending bool
	thread  *thread.Thread
	state   State
	block   []byte
}

// State returns the list the event is on.
func (e *Event) State() State { return e.state }

// Pending reports whether a waiter has not yet observed completion.
func (e *Event) Pending() bool { return e.pending }

// Scheduler returns the scheduler the event is bound to.
func (e *Event) Scheduler() *Scheduler { return e.sched }

// Kernel is the event subsystem of one core.
type Kernel struct {
	irq     api.IRQController
	threads *thread.Runtime
	alloc   api.BlockAllocator
	domain  api.MemDomain

	free   *Event
	nfree  int
	nalloc int
	fails  uint64

	def    *Scheduler
	scheds map[*thread.Thread]*Scheduler

	log *logging.Logger
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the kernel logger.
func WithLogger(l *logging.Logger) Option {
	return func(k *Kernel) { k.log = logging.Component(l, "event") }
}

// WithDomain selects the memory domain events are allocated from. The
// default is the control core memory.
func WithDomain(d api.MemDomain) Option {
	return func(k *Kernel) { k.domain = d }
}

// NewKernel creates the event subsystem of the core masked by irq and
// running threads.
func NewKernel(irq api.IRQController, threads *thread.Runtime, alloc api.BlockAllocator, opts ...Option) *Kernel {
	k := &Kernel{
		irq:     irq,
		threads: threads,
		alloc:   alloc,
		domain:  api.DomainFC,
		scheds:  make(map[*thread.Thread]*Scheduler),
	}
	for _, o := range opts {
		o(k)
	}
	k.def = k.NewScheduler()
	return k
}

// Default returns the default scheduler.
func (k *Kernel) Default() *Scheduler { return k.def }

// Current returns the scheduler of the running thread, falling back to the
// default scheduler.
func (k *Kernel) Current() *Scheduler {
	defer k.critical()()
	if s, ok := k.scheds[k.threads.Current()]; ok {
		return s
	}
	return k.def
}

// SetCurrent binds s to the running thread. A nil s restores the default.
func (k *Kernel) SetCurrent(s *Scheduler) {
	defer k.critical()()
	t := k.threads.Current()
	if s == nil {
		delete(k.scheds, t)
		return
	}
	k.scheds[t] = s
}

func (k *Kernel) critical() func() {
	s := k.irq.Disable()
	return func() { k.irq.Restore(s) }
}

// closer is implemented by interrupt controllers that can be shut down.
type closer interface{ Closed() bool }

func (k *Kernel) closed() bool {
	c, ok := k.irq.(closer)
	return ok && c.Closed()
}
