// File: core/thread/thread.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package thread runs cooperative threads on one core.
//
// Every thread is a goroutine, but only the holder of the core baton runs.
// The baton moves at Sleep, Yield and thread exit. When no thread is ready
// the running thread idles the core in WaitForInterrupt, so interrupt
// handlers keep being serviced while everything sleeps.
package thread

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/internal/logging"
)

// State is the scheduling state of a thread.
type State uint8

const (
	Running State = iota
	Ready
	Sleeping
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Ready:
		return "ready"
	case Sleeping:
		return "sleeping"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Thread is one cooperative thread.
type Thread struct {
	id    int
	name  string
	state State
	wake  chan struct{}
	done  chan struct{}
}

// ID returns the thread identifier; the creating thread is 0.
func (t *Thread) ID() int { return t.id }

// Name returns the thread name.
func (t *Thread) Name() string { return t.name }

// Done is closed when the thread function returned.
func (t *Thread) Done() <-chan struct{} { return t.done }

// Runtime owns the threads of one core.
type Runtime struct {
	irq api.IRQController

	mu      sync.Mutex
	ready   *queue.Queue
	current *Thread
	nextID  int

	log *logging.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runtime) { r.log = logging.Component(l, "thread") }
}

// New adopts the calling goroutine as the running "main" thread.
func New(irq api.IRQController, opts ...Option) *Runtime {
	r := &Runtime{
		irq:   irq,
		ready: queue.New(),
	}
	for _, o := range opts {
		o(r)
	}
	r.current = r.newThread("main")
	r.current.state = Running
	return r
}

func (r *Runtime) newThread(name string) *Thread {
	t := &Thread{
		id:   r.nextID,
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	r.nextID++
	return t
}

// Current returns the running thread.
func (r *Runtime) Current() *Thread {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// HasReady reports whether a thread is waiting for the core.
func (r *Runtime) HasReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready.Length() > 0
}

// Spawn creates a ready thread running fn. It first runs when the caller
// sleeps or yields.
func (r *Runtime) Spawn(name string, fn func()) *Thread {
	r.mu.Lock()
	t := r.newThread(name)
	t.state = Ready
	r.ready.Add(t)
	r.mu.Unlock()

	r.log.Debug().Int("thread", t.id).Str("name", name).Log("thread spawned")
	go r.run(t, fn)
	return t
}

func (r *Runtime) run(t *Thread, fn func()) {
	<-t.wake
	r.irq.Enable()
	fn()
	r.log.Debug().Int("thread", t.id).Log("thread exited")
	r.mu.Lock()
	t.state = Done
	r.mu.Unlock()
	close(t.done)
	r.switchFrom(t)
}

// Ready makes a sleeping thread runnable. Other states are left unchanged.
func (r *Runtime) Ready(t *Thread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.state != Sleeping {
		return
	}
	t.state = Ready
	r.ready.Add(t)
}

// Sleep suspends the running thread until another context readies it.
func (r *Runtime) Sleep() {
	r.mu.Lock()
	cur := r.current
	cur.state = Sleeping
	r.mu.Unlock()
	r.switchFrom(cur)
}

// Yield hands the core to the first ready thread, if any.
func (r *Runtime) Yield() {
	r.mu.Lock()
	if r.ready.Length() == 0 {
		r.mu.Unlock()
		return
	}
	cur := r.current
	cur.state = Ready
	r.ready.Add(cur)
	r.mu.Unlock()
	r.switchFrom(cur)
}

// switchFrom passes the baton from cur to the next ready thread, idling the
// core until one exists. It returns once cur holds the baton again.
func (r *Runtime) switchFrom(cur *Thread) {
	s := r.irq.Disable()
	next := r.pickNext(cur)
	r.mu.Lock()
	next.state = Running
	r.current = next
	exited := cur.state == Done
	r.mu.Unlock()

	if next != cur {
		next.wake <- struct{}{}
		if exited {
			return
		}
		<-cur.wake
	}
	r.irq.Restore(s)
}

// closer is implemented by controllers that can be shut down.
type closer interface{ Closed() bool }

// pickNext dequeues the next ready thread. On a closed controller with
// nothing ready, cur keeps the core and sees a spurious wakeup.
func (r *Runtime) pickNext(cur *Thread) *Thread {
	for {
		r.mu.Lock()
		if r.ready.Length() > 0 {
			t := r.ready.Remove().(*Thread)
			r.mu.Unlock()
			return t
		}
		exited := cur.state == Done
		r.mu.Unlock()
		if c, ok := r.irq.(closer); ok && c.Closed() && !exited {
			return cur
		}
		r.irq.WaitForInterrupt()
		r.irq.Enable()
		r.irq.Disable()
	}
}
