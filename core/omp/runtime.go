// File: core/omp/runtime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package omp is the SPMD work-sharing runtime of the compute cluster:
// teams, critical sections, barriers, parallel region dispatch and dynamic
// loop distribution, all built on the cluster event unit.
package omp

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/internal/logging"
)

// Register allocation in the event unit.
const (
	plainBarrier   = 0
	partialBarrier = 1
	criticalMutex  = 0
	loopID         = 0
	singleID       = 1
)

// Func is the body of a parallel region, run once per team core.
type Func func(c *Core, data any)

// Runtime is the work-sharing state of one cluster.
type Runtime struct {
	eu   api.EventUnit
	hw   api.HWSync
	line api.EventLineSync

	coreMask uint32
	plain    *Team
	cores    []*Core

	mu       sync.Mutex
	partials map[int]*Team
	current  []atomic.Pointer[Team]

	log *logging.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used by the User* tracing variants.
func WithLogger(l *logging.Logger) Option {
	return func(rt *Runtime) { rt.log = logging.Component(l, "omp") }
}

// New builds the runtime for the cores enabled in coreMask. The hardware
// barrier and mutex path is used when the unit revision provides it.
func New(eu api.EventUnit, coreMask uint32, opts ...Option) (*Runtime, error) {
	n := eu.NumCores()
	if coreMask == 0 || (n < 32 && coreMask>>uint(n) != 0) {
		return nil, fmt.Errorf("omp: core mask %#x for %d cores: %w", coreMask, n, api.ErrInvalidArgument)
	}
	rt := &Runtime{
		eu:       eu,
		coreMask: coreMask,
		partials: make(map[int]*Team),
		current:  make([]atomic.Pointer[Team], n),
	}
	for _, o := range opts {
		o(rt)
	}
	if hw, ok := eu.(api.HWSync); ok && eu.Version() >= 3 {
		rt.hw = hw
	} else if line, ok := eu.(api.EventLineSync); ok {
		rt.line = line
	} else {
		return nil, api.NewError(api.ErrCodeNotSupported, "omp: event unit has no barrier").
			WithContext("revision", eu.Version())
	}

	rt.cores = make([]*Core, n)
	for i := range rt.cores {
		rt.cores[i] = &Core{rt: rt, id: i}
	}
	rt.plain = rt.newTeam(coreMask, plainBarrier)
	return rt, nil
}

// Core returns the handle of core id.
func (rt *Runtime) Core(id int) *Core { return rt.cores[id] }

// CoreMask returns the enabled cores.
func (rt *Runtime) CoreMask() uint32 { return rt.coreMask }

// NumCores returns the number of enabled cores.
func (rt *Runtime) NumCores() int { return bits.OnesCount32(rt.coreMask) }

// PlainTeam returns the team of every enabled core.
func (rt *Runtime) PlainTeam() *Team { return rt.plain }

// EventUnit returns the underlying event unit.
func (rt *Runtime) EventUnit() api.EventUnit { return rt.eu }

// partialTeam returns the cached team of the first n enabled cores.
func (rt *Runtime) partialTeam(n int) *Team {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if t, ok := rt.partials[n]; ok {
		return t
	}
	var mask uint32
	for m, left := rt.coreMask, n; left > 0 && m != 0; left-- {
		low := m & -m
		mask |= low
		m &^= low
	}
	t := &Team{rt: rt, mask: mask, nthreads: bits.OnesCount32(mask), barrierID: partialBarrier}
	rt.partials[n] = t
	return t
}

func (rt *Runtime) newTeam(mask uint32, barrierID int) *Team {
	t := &Team{rt: rt, mask: mask, nthreads: bits.OnesCount32(mask), barrierID: barrierID}
	rt.setupBarrier(t)
	return t
}

func (rt *Runtime) setupBarrier(t *Team) {
	if rt.hw != nil {
		rt.hw.BarrierSetup(t.barrierID, t.mask)
	} else {
		rt.line.BarrierSetup(t.barrierID, t.mask)
	}
}

// Core is the handle a cluster core uses for every runtime call.
type Core struct {
	rt *Runtime
	id int
}

// ID returns the core identifier.
func (c *Core) ID() int { return c.id }

// GetThreadNum returns the thread number of the core, its core id.
func (c *Core) GetThreadNum() int { return c.id }

// Runtime returns the owning runtime.
func (c *Core) Runtime() *Runtime { return c.rt }

// Team returns the team the core currently belongs to.
func (c *Core) Team() *Team {
	if t := c.rt.current[c.id].Load(); t != nil {
		return t
	}
	return c.rt.plain
}

// NumThreads returns the size of the current team.
func (c *Core) NumThreads() int { return c.Team().nthreads }
