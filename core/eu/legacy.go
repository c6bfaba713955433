// File: core/eu/legacy.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pre-revision-3 event unit: barrier counters raising an event line.

package eu

import (
	"sync"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/internal/concurrency"
)

var (
	_ api.EventUnit     = (*LegacyUnit)(nil)
	_ api.EventLineSync = (*LegacyUnit)(nil)
)

// LegacyUnit is an event unit without hardware mutexes. A completed barrier
// sets the barrier event bit of every core in its mask.
type LegacyUnit struct {
	ncores int
	disp   *dispatcher
	loop   *loopUnit

	mu      sync.Mutex
	cond    *sync.Cond
	masks   [NumBarriers]uint32
	arrived [NumBarriers]uint32
	events  [MaxCores]uint32
}

// NewLegacy creates a legacy unit for ncores cores. The loop registers are
// guarded by a software spin mutex.
func NewLegacy(ncores int, opts ...Option) (*LegacyUnit, error) {
	if err := checkCores(ncores); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	u := &LegacyUnit{
		ncores: ncores,
		disp:   newDispatcher(ncores, o.depth),
		loop:   newLoopUnit(ncores, &concurrency.SpinMutex{}),
	}
	u.cond = sync.NewCond(&u.mu)
	return u, nil
}

func (u *LegacyUnit) Version() int               { return LegacyVersion }
func (u *LegacyUnit) NumCores() int              { return u.ncores }
func (u *LegacyUnit) Dispatcher() api.Dispatcher { return u.disp }
func (u *LegacyUnit) Loop() api.LoopUnit         { return u.loop }
func (u *LegacyUnit) Close()                     { u.disp.close() }

// BarrierSetup implements api.EventLineSync.
func (u *LegacyUnit) BarrierSetup(id int, mask uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.masks[id] = mask
	u.arrived[id] = 0
}

// BarrierNotify records the arrival of core.
func (u *LegacyUnit) BarrierNotify(core, id int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.arrived[id] |= 1 << uint(core)
	if u.arrived[id] != u.masks[id] {
		return
	}
	u.arrived[id] = 0
	for c, m := 0, u.masks[id]; m != 0; c, m = c+1, m>>1 {
		if m&1 != 0 {
			u.events[c] |= 1 << uint(id)
		}
	}
	u.cond.Broadcast()
}

// EvtWait blocks core until one of its event bits is set.
func (u *LegacyUnit) EvtWait(core int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for u.events[core] == 0 {
		u.cond.Wait()
	}
}

// GPEvtClear clears the barrier event bit of core.
func (u *LegacyUnit) GPEvtClear(core, id int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events[core] &^= 1 << uint(id)
}
