// File: api/interrupts.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Interrupt masking contract of a single core.

package api

// IRQState is the interrupt-enable state captured by IRQController.Disable.
type IRQState bool

// IRQController masks and unmasks interrupt delivery on one core.
// All methods must be called from the context currently owning the core.
type IRQController interface {
	// Disable masks interrupts and returns the previous state.
	Disable() IRQState
	// Restore reinstates a state returned by Disable.
	Restore(s IRQState)
	// Enable unmasks interrupts. Pending handlers run before it returns.
	Enable()
	// WaitForInterrupt idles the core until an interrupt is pending. It may be
	// called masked, in which case the handler runs at the next unmask.
	WaitForInterrupt()
}
