// File: core/omp/team.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Team barrier and critical section.

package omp

import (
	"github.com/momentics/hioload-rt/internal/concurrency"
)

// Team is a set of cores running one parallel region.
type Team struct {
	rt        *Runtime
	mask      uint32
	nthreads  int
	barrierID int
	// mutex is the critical section lock when the unit has no hardware mutex.
	mutex concurrency.SpinMutex
}

// NumThreads returns the team size.
func (t *Team) NumThreads() int { return t.nthreads }

// Mask returns the cores of the team.
func (t *Team) Mask() uint32 { return t.mask }

// CriticalStart enters the critical section of the current team.
func (c *Core) CriticalStart() {
	if c.rt.hw != nil {
		c.rt.hw.MutexLock(criticalMutex)
		return
	}
	c.Team().mutex.Lock()
}

// CriticalEnd leaves the critical section of the current team.
func (c *Core) CriticalEnd() {
	if c.rt.hw != nil {
		c.rt.hw.MutexUnlock(criticalMutex)
		return
	}
	c.Team().mutex.Unlock()
}

// Barrier blocks until every core of the current team arrived.
func (c *Core) Barrier() {
	t := c.Team()
	if c.rt.hw != nil {
		c.rt.hw.BarrierTrigWaitClear(c.id, t.barrierID)
		return
	}
	c.rt.line.BarrierNotify(c.id, t.barrierID)
	c.rt.line.EvtWait(c.id)
	c.rt.line.GPEvtClear(c.id, t.barrierID)
}

// UserCriticalStart is CriticalStart with trace records.
func (c *Core) UserCriticalStart() {
	c.rt.log.Trace().Int("core", c.id).Log("critical enter")
	c.CriticalStart()
	c.rt.log.Trace().Int("core", c.id).Log("critical entered")
}

// UserCriticalEnd is CriticalEnd with a trace record.
func (c *Core) UserCriticalEnd() {
	c.rt.log.Trace().Int("core", c.id).Log("critical exit")
	c.CriticalEnd()
}

// UserBarrier is Barrier with trace records.
func (c *Core) UserBarrier() {
	c.rt.log.Trace().Int("core", c.id).Int("team", c.NumThreads()).Log("barrier enter")
	c.Barrier()
	c.rt.log.Trace().Int("core", c.id).Log("barrier exit")
}
