// File: core/event/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package event implements the event scheduler of the control core: a pool
// of preallocated events, FIFO schedulers draining them with callbacks run
// unmasked, and the blocking protocol letting a thread sleep until an event
// completes.
//
// All state belongs to one core. Every mutation happens with interrupts
// masked, one operation at a time; callbacks always run unmasked. Events
// from other goroutines must enter through an interrupt handler.
package event
