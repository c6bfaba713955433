// File: internal/concurrency/backoff.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adaptive backoff for polling loops that stand in for hardware wait states
// (event wait, dispatch pop, software mutex).

package concurrency

import (
	"runtime"
	"time"
)

const (
	spinRounds   = 64
	maxBackoffNs = int64(1_000_000)
)

// Backoff escalates from busy spinning to yielding to sleeping, doubling the
// sleep up to 1ms. The zero value is ready to use.
type Backoff struct {
	rounds  int
	sleepNs int64
}

// Wait performs one backoff step.
func (b *Backoff) Wait() {
	b.rounds++
	switch {
	case b.rounds <= spinRounds:
		// spin
	case b.rounds <= 2*spinRounds:
		runtime.Gosched()
	default:
		if b.sleepNs == 0 {
			b.sleepNs = 1000
		}
		time.Sleep(time.Duration(b.sleepNs))
		b.sleepNs *= 2
		if b.sleepNs > maxBackoffNs {
			b.sleepNs = maxBackoffNs
		}
	}
}

// Reset returns to the spinning phase.
func (b *Backoff) Reset() {
	b.rounds = 0
	b.sleepNs = 0
}
