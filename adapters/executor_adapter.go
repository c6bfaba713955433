// File: adapters/executor_adapter.go
// Package adapters provides glue between foreign goroutines and a runtime core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventExecutor implements the api.Executor interface on top of the event
// kernel of one core. Submit is safe from any goroutine: tasks go through a
// lock-free mailbox and an interrupt line, and the handler turns them into
// events on the target scheduler. Tasks that find the event pool empty wait
// in a backlog drained at the next interrupt.

package adapters

import (
	"fmt"
	"sync/atomic"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/core/event"
	"github.com/momentics/hioload-rt/core/irq"
	"github.com/momentics/hioload-rt/internal/concurrency"
)

var _ api.Executor = (*EventExecutor)(nil)

// EventExecutor submits tasks to an event scheduler.
type EventExecutor struct {
	k       *event.Kernel
	sched   *event.Scheduler
	irq     *irq.Controller
	line    int
	mailbox *concurrency.FIFO[func()]
	backlog []func()
	closed  atomic.Bool
	dropped atomic.Uint64
}

// NewEventExecutor installs the mailbox handler on line of c. Tasks run on
// sched, or on the default scheduler when sched is nil.
func NewEventExecutor(k *event.Kernel, sched *event.Scheduler, c *irq.Controller, line, depth int) (*EventExecutor, error) {
	if sched == nil {
		sched = k.Default()
	}
	e := &EventExecutor{
		k:       k,
		sched:   sched,
		irq:     c,
		line:    line,
		mailbox: concurrency.NewFIFO[func()](depth),
	}
	if err := c.SetHandler(line, e.handle); err != nil {
		return nil, fmt.Errorf("adapters: executor line %d: %w", line, err)
	}
	return e, nil
}

// Submit hands task to the core. It fails when the mailbox is full or the
// executor closed.
func (e *EventExecutor) Submit(task func()) error {
	if e.closed.Load() {
		return api.ErrClosed
	}
	if !e.mailbox.TryPush(task) {
		return fmt.Errorf("adapters: executor mailbox full: %w", api.ErrResourceExhausted)
	}
	return e.irq.Trigger(e.line)
}

// NumWorkers returns 1: a core runs one callback at a time.
func (e *EventExecutor) NumWorkers() int { return 1 }

// Backlog returns the number of tasks waiting for a free event. Must be
// called on the core.
func (e *EventExecutor) Backlog() int { return len(e.backlog) }

// Close rejects further submissions and uninstalls the handler. Tasks
// still in the mailbox or the backlog are counted as dropped. Must be called
// on the core.
func (e *EventExecutor) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	_ = e.irq.SetHandler(e.line, nil)
	for {
		if _, ok := e.mailbox.TryPop(); !ok {
			break
		}
		e.dropped.Add(1)
	}
	defer irq.Critical(e.irq).Exit()
	e.dropped.Add(uint64(len(e.backlog)))
	e.backlog = nil
}

// Dropped returns the number of tasks discarded by Close.
func (e *EventExecutor) Dropped() uint64 { return e.dropped.Load() }

// handle runs on the core, masked.
func (e *EventExecutor) handle(int) {
	for len(e.backlog) > 0 {
		if e.k.PushCallback(e.sched, e.run, e.backlog[0]) != nil {
			return
		}
		e.backlog = e.backlog[1:]
	}
	for {
		task, ok := e.mailbox.TryPop()
		if !ok {
			return
		}
		if len(e.backlog) > 0 || e.k.PushCallback(e.sched, e.run, task) != nil {
			e.backlog = append(e.backlog, task)
		}
	}
}

// run executes one task. Its event is already back in the pool, so a
// non-empty backlog raises the line again to take it.
func (e *EventExecutor) run(arg any) {
	arg.(func())()
	s := e.irq.Disable()
	waiting := len(e.backlog) > 0
	e.irq.Restore(s)
	if waiting && !e.closed.Load() {
		_ = e.irq.Trigger(e.line)
	}
}
