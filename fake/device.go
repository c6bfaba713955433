// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake peripheral raising an interrupt line on request completion.
// Provides predictable, controllable behavior for driver-style tests.

package fake

import (
	"sync"

	"github.com/momentics/hioload-rt/api"
)

// LineTrigger raises an interrupt line.
type LineTrigger interface {
	Trigger(line int) error
}

// Device completes submitted requests asynchronously: each Submit queues the
// request and raises the device line. The interrupt handler takes the
// completions with Drain.
type Device struct {
	mu        sync.Mutex
	irq       LineTrigger
	line      int
	completed []any
	submitted int
	closed    bool
	submitErr error
}

// NewDevice creates a fake device wired to line of irq.
func NewDevice(irq LineTrigger, line int) *Device {
	return &Device{irq: irq, line: line}
}

// Line returns the interrupt line of the device.
func (d *Device) Line() int { return d.line }

// Submit queues req for completion and raises the line.
func (d *Device) Submit(req any) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return api.ErrClosed
	}
	if d.submitErr != nil {
		err := d.submitErr
		d.mu.Unlock()
		return err
	}
	d.completed = append(d.completed, req)
	d.submitted++
	d.mu.Unlock()
	return d.irq.Trigger(d.line)
}

// Drain returns and clears the completed requests.
func (d *Device) Drain() []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.completed
	d.completed = nil
	return out
}

// Submitted returns the number of accepted requests.
func (d *Device) Submitted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submitted
}

// SetSubmitError makes Submit fail with err until reset with nil.
func (d *Device) SetSubmitError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitErr = err
}

// Close rejects further requests.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}
