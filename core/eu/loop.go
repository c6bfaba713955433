// File: core/eu/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop-sharing registers. Each core counts the loop instances it entered;
// the register set follows the most advanced core.

package eu

import (
	"sync"

	"github.com/momentics/hioload-rt/api"
)

type loopSlot struct {
	epoch uint64
	ready bool
	start int
	end   int
	incr  int
	chunk int
	seen  [MaxCores]uint64

	single     uint64
	singleSeen [MaxCores]uint64
}

type loopUnit struct {
	mu    sync.Locker
	cond  *sync.Cond
	slots [NumLoops]loopSlot
}

func newLoopUnit(_ int, mu sync.Locker) *loopUnit {
	return &loopUnit{mu: mu, cond: sync.NewCond(mu)}
}

var _ api.LoopUnit = (*loopUnit)(nil)

// State enters the next loop instance for core. The first core entering an
// instance gets LoopInit and must call Setup; later cores wait for it. A core
// entering an instance others already left gets LoopSkip.
func (l *loopUnit) State(core, id int) api.LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := &l.slots[id]
	s.seen[core]++
	e := s.seen[core]
	switch {
	case e > s.epoch:
		s.epoch = e
		s.ready = false
		return api.LoopInit
	case e < s.epoch:
		return api.LoopSkip
	}
	for !s.ready && s.epoch == e {
		l.cond.Wait()
	}
	if s.epoch != e || s.start >= s.end {
		return api.LoopSkip
	}
	return api.LoopDone
}

// Setup writes the bounds of the current instance of loop id.
func (l *loopUnit) Setup(id, start, end, incr, chunk int) {
	if incr <= 0 || chunk <= 0 {
		panic(api.Contract("eu: loop increment and chunk must be positive").
			WithContext("incr", incr).WithContext("chunk", chunk))
	}
	l.mu.Lock()
	s := &l.slots[id]
	s.start, s.end, s.incr, s.chunk = start, end, incr, chunk
	s.ready = true
	l.mu.Unlock()
	l.cond.Broadcast()
}

// Claim reserves the next chunk of the instance core is in.
func (l *loopUnit) Claim(core, id int) (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := &l.slots[id]
	if !s.ready || s.seen[core] != s.epoch || s.start >= s.end {
		return s.end, 0
	}
	size := min(s.chunk*s.incr, s.end-s.start)
	start := s.start
	s.start += size
	return start, size
}

// Rebase aligns the instance counters of the cores in mask on the most
// advanced core. Called by the region master while those cores are idle.
func (l *loopUnit) Rebase(mask uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.slots {
		s := &l.slots[i]
		for c, m := 0, mask; m != 0 && c < MaxCores; c, m = c+1, m>>1 {
			if m&1 != 0 {
				s.seen[c] = s.epoch
				s.singleSeen[c] = s.single
			}
		}
	}
}

// Single reports whether core is first into its next single construct.
func (l *loopUnit) Single(core, id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := &l.slots[id]
	s.singleSeen[core]++
	if e := s.singleSeen[core]; e > s.single {
		s.single = e
		return true
	}
	return false
}
