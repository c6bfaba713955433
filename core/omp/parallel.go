// File: core/omp/parallel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Parallel region dispatch.

package omp

import (
	"github.com/momentics/hioload-rt/api"
)

// ParallelRegion runs fn(data) once on each core of the team selected by
// numThreads and returns after all of them met at the team barrier. A
// numThreads of zero, or at least the number of enabled cores, selects the
// plain team.
func (c *Core) ParallelRegion(fn Func, data any, numThreads int) {
	if numThreads >= 32 || (uint32(1)<<uint(max(numThreads, 0)))&c.rt.coreMask <= 1 {
		c.run(c.rt.plain, fn, data)
		return
	}
	c.PartialParallelRegion(fn, data, numThreads)
}

// PartialParallelRegion runs fn(data) on the first numThreads enabled cores
// only. The other cores are not woken.
func (c *Core) PartialParallelRegion(fn Func, data any, numThreads int) {
	if numThreads <= 0 {
		panic(api.Contract("omp: partial team needs at least one thread").WithContext("threads", numThreads))
	}
	t := c.rt.partialTeam(numThreads)
	c.rt.setupBarrier(t)
	c.run(t, fn, data)
}

func (c *Core) run(t *Team, fn Func, data any) {
	self := uint32(1) << uint(c.id)
	if t.mask&self == 0 {
		panic(api.Contract("omp: region master outside its team").
			WithContext("core", c.id).WithContext("team", t.mask))
	}
	rt := c.rt
	for id, m := 0, t.mask; m != 0; id, m = id+1, m>>1 {
		if m&1 != 0 {
			rt.current[id].Store(t)
		}
	}
	rt.eu.Loop().Rebase(t.mask)
	rt.log.Trace().Int("core", c.id).Int("threads", t.nthreads).Log("parallel region start")

	rt.eu.Dispatcher().Push(t.mask&^self, fn, data)
	fn(c, data)
	c.Barrier()

	rt.current[c.id].Store(rt.plain)
	rt.log.Trace().Int("core", c.id).Log("parallel region end")
}
