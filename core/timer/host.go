// File: core/timer/host.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import (
	"sync"
	"time"

	"github.com/momentics/hioload-rt/api"
)

var _ api.CounterSource = (*HostCounter)(nil)

// HostCounter emulates the reference-clocked counter from the host
// monotonic clock.
type HostCounter struct {
	mu     sync.Mutex
	refHz  uint64
	origin time.Time
	base   uint64
}

// NewHostCounter returns a counter ticking at refHz from zero.
func NewHostCounter(refHz uint64) *HostCounter {
	return &HostCounter{refHz: refHz, origin: time.Now()}
}

// Count64 implements api.CounterSource.
func (h *HostCounter) Count64() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.base + h.ticks(time.Since(h.origin))
}

// SetCount64 implements api.CounterSource.
func (h *HostCounter) SetCount64(v uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = v
	h.origin = time.Now()
}

func (h *HostCounter) ticks(d time.Duration) uint64 {
	ns := uint64(d)
	return ns/1e9*h.refHz + ns%1e9*h.refHz/1e9
}
