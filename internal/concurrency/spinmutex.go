// File: internal/concurrency/spinmutex.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Software spin mutex for event units without a hardware mutex register.

package concurrency

import (
	"sync"
	"sync/atomic"
)

var _ sync.Locker = (*SpinMutex)(nil)

// SpinMutex is a test-and-set lock. It serializes every critical section
// entry of a team.
type SpinMutex struct {
	state atomic.Uint32
}

// Lock spins until the mutex is acquired.
func (m *SpinMutex) Lock() {
	var b Backoff
	for {
		if m.state.Load() == 0 && m.state.CompareAndSwap(0, 1) {
			return
		}
		b.Wait()
	}
}

// TryLock acquires the mutex if it is free.
func (m *SpinMutex) TryLock() bool {
	return m.state.CompareAndSwap(0, 1)
}

// Unlock releases the mutex. Unlocking a free mutex panics.
func (m *SpinMutex) Unlock() {
	if !m.state.CompareAndSwap(1, 0) {
		panic("concurrency: unlock of unlocked SpinMutex")
	}
}
