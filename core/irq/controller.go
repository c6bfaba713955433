// File: core/irq/controller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mask state, pending lines and idle wait of one core.

package irq

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/internal/logging"
)

var _ api.IRQController = (*Controller)(nil)

// State is the mask state returned by Disable.
type State = api.IRQState

// Controller is the interrupt controller of one core.
type Controller struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  uint64
	wakeMask uint64
	enabled  bool
	closed   bool

	vectors  [NumLines]atomic.Pointer[Handler]
	illegal  atomic.Pointer[IllegalHook]
	handled  atomic.Uint64
	spurious atomic.Uint64

	log *logging.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for illegal instruction reports.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.log = logging.Component(l, "irq") }
}

// WithWakeMask restricts the lines able to wake WaitForInterrupt. The default
// wakes on every line.
func WithWakeMask(mask uint64) Option {
	return func(c *Controller) { c.wakeMask = mask }
}

// WithMasked starts the controller with interrupts disabled, as after reset.
func WithMasked() Option {
	return func(c *Controller) { c.enabled = false }
}

// New returns a controller with interrupts enabled.
func New(opts ...Option) *Controller {
	c := &Controller{
		wakeMask: ^uint64(0),
		enabled:  true,
	}
	c.cond = sync.NewCond(&c.mu)
	for _, o := range opts {
		o(c)
	}
	return c
}

// Disable masks interrupts and returns the previous state. Lines that became
// pending while unmasked are serviced first.
func (c *Controller) Disable() State {
	c.mu.Lock()
	was := c.enabled
	c.mu.Unlock()
	if was {
		c.Enable()
	}
	c.mu.Lock()
	c.enabled = false
	c.mu.Unlock()
	return State(was)
}

// Restore reinstates a state returned by Disable.
func (c *Controller) Restore(s State) {
	if s {
		c.Enable()
	}
}

// Enable unmasks interrupts after running every pending handler.
func (c *Controller) Enable() {
	for {
		c.mu.Lock()
		if c.pending == 0 {
			c.enabled = true
			c.mu.Unlock()
			return
		}
		line := bits.TrailingZeros64(c.pending)
		c.pending &^= 1 << uint(line)
		c.enabled = false
		c.mu.Unlock()
		c.dispatch(line)
	}
}

// Enabled reports the current mask state.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// WaitForInterrupt idles until a line in the wake mask is pending or the
// controller is closed. When called unmasked the handlers run before return.
func (c *Controller) WaitForInterrupt() {
	c.mu.Lock()
	for c.pending&c.wakeMask == 0 && !c.closed {
		c.cond.Wait()
	}
	enabled := c.enabled
	c.mu.Unlock()
	if enabled {
		c.Enable()
	}
}

// Trigger raises line. Safe from any goroutine.
func (c *Controller) Trigger(line int) error {
	if line < 0 || line >= NumLines {
		return ErrBadLine
	}
	if c.vectors[line].Load() == nil {
		c.spurious.Add(1)
		return ErrNoHandler
	}
	c.mu.Lock()
	c.pending |= 1 << uint(line)
	c.mu.Unlock()
	c.cond.Broadcast()
	return nil
}

// Pending returns the bitmask of raised, not yet serviced lines.
func (c *Controller) Pending() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Close releases a core idling in WaitForInterrupt. Later waits return
// immediately.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Closed reports whether Close was called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Stats returns the number of serviced and spurious interrupts.
func (c *Controller) Stats() (handled, spurious uint64) {
	return c.handled.Load(), c.spurious.Load()
}

// Section is a scoped critical section.
type Section struct {
	c api.IRQController
	s api.IRQState
}

// Critical masks interrupts on c until Exit is called.
//
//	defer irq.Critical(c).Exit()
func Critical(c api.IRQController) Section {
	return Section{c: c, s: c.Disable()}
}

// Exit restores the state saved on entry.
func (s Section) Exit() { s.c.Restore(s.s) }
