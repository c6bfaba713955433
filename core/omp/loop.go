// File: core/omp/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dynamic loop distribution, sections and single constructs. Chunks come
// from the loop-sharing registers, so each index is claimed exactly once.

package omp

import (
	"github.com/momentics/hioload-rt/api"
)

// DynLoopInit enters a dynamically scheduled loop over [start, end) with
// step incr, distributed chunk iterations at a time, and claims the first
// chunk. The core iterating [istart, iend) must call DynLoopIter for more.
func (c *Core) DynLoopInit(start, end, incr, chunk int) (istart, iend int, ok bool) {
	c.DynLoopInitNoIter(start, end, incr, chunk)
	return c.DynLoopIter()
}

// DynLoopInitNoIter enters the loop without claiming a chunk.
func (c *Core) DynLoopInitNoIter(start, end, incr, chunk int) {
	checkStep(incr, chunk)
	l := c.rt.eu.Loop()
	if l.State(c.id, loopID) == api.LoopInit {
		l.Setup(loopID, start, end, incr, chunk)
	}
}

// DynLoopInitSingle initializes the loop unconditionally. Only valid when a
// single core runs the loop.
func (c *Core) DynLoopInitSingle(start, end, incr, chunk int) {
	checkStep(incr, chunk)
	l := c.rt.eu.Loop()
	l.State(c.id, loopID)
	l.Setup(loopID, start, end, incr, chunk)
}

// checkStep rejects a loop before the core enters a loop instance, so that
// the other cores never wait on an instance nobody sets up.
func checkStep(incr, chunk int) {
	if incr <= 0 || chunk <= 0 {
		panic(api.Contract("omp: loop increment and chunk must be positive").
			WithContext("incr", incr).WithContext("chunk", chunk))
	}
}

// DynLoopIter claims the next chunk. ok is false once the loop is exhausted.
func (c *Core) DynLoopIter() (istart, iend int, ok bool) {
	s, size := c.rt.eu.Loop().Claim(c.id, loopID)
	if size == 0 {
		return 0, 0, false
	}
	return s, s + size, true
}

// SectionInit enters a sections construct of count sections and returns the
// first section index claimed, from 1, or 0 when none is left.
func (c *Core) SectionInit(count int) int {
	if count <= 0 {
		c.DynLoopInitNoIter(1, 1, 1, 1)
		return 0
	}
	s, _, ok := c.DynLoopInit(1, count+1, 1, 1)
	if !ok {
		return 0
	}
	return s
}

// SectionGet returns the next section index, 0 when none is left.
func (c *Core) SectionGet() int {
	s, _, ok := c.DynLoopIter()
	if !ok {
		return 0
	}
	return s
}

// SingleStart reports whether the core runs the single construct.
func (c *Core) SingleStart() bool {
	return c.rt.eu.Loop().Single(c.id, singleID)
}
