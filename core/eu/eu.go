// File: core/eu/eu.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package eu models the cluster event unit: barrier and mutex registers,
// the per-core dispatch FIFO and the loop-sharing registers.
//
// New models revision 3 hardware, with trigger-wait-clear barriers and
// hardware mutexes. NewLegacy models earlier revisions, where a barrier
// raises a general purpose event line that each core waits on and clears,
// and mutual exclusion is left to software.
package eu

import (
	"fmt"
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-rt/api"
)

const (
	// MaxCores is the largest cluster the unit addresses.
	MaxCores = 16
	// NumBarriers is the number of barrier registers.
	NumBarriers = 8
	// NumMutexes is the number of hardware mutexes.
	NumMutexes = 8
	// NumLoops is the number of loop-sharing register sets.
	NumLoops = 4
	// Version is the revision modelled by New.
	Version = 3
	// LegacyVersion is the revision modelled by NewLegacy.
	LegacyVersion = 2
)

var (
	_ api.EventUnit = (*Unit)(nil)
	_ api.HWSync    = (*Unit)(nil)
)

type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	mask    uint32
	arrived uint32
	gen     uint64
	_       cpu.CacheLinePad
}

// Unit is a revision 3 event unit.
type Unit struct {
	ncores   int
	disp     *dispatcher
	loop     *loopUnit
	barriers [NumBarriers]barrier
	mutexes  [NumMutexes]sync.Mutex
}

// Option configures a unit.
type Option func(*options)

type options struct {
	depth int
}

// WithDispatchDepth sets the per-core dispatch FIFO depth in words.
func WithDispatchDepth(words int) Option {
	return func(o *options) { o.depth = words }
}

func buildOptions(opts []Option) options {
	o := options{depth: 16}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func checkCores(n int) error {
	if n < 1 || n > MaxCores {
		return fmt.Errorf("eu: %d cores: %w", n, api.ErrInvalidArgument)
	}
	return nil
}

// New creates a revision 3 unit for ncores cores.
func New(ncores int, opts ...Option) (*Unit, error) {
	if err := checkCores(ncores); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	u := &Unit{
		ncores: ncores,
		disp:   newDispatcher(ncores, o.depth),
		loop:   newLoopUnit(ncores, &sync.Mutex{}),
	}
	for i := range u.barriers {
		u.barriers[i].cond = sync.NewCond(&u.barriers[i].mu)
	}
	return u, nil
}

func (u *Unit) Version() int               { return Version }
func (u *Unit) NumCores() int              { return u.ncores }
func (u *Unit) Dispatcher() api.Dispatcher { return u.disp }
func (u *Unit) Loop() api.LoopUnit         { return u.loop }
func (u *Unit) Close()                     { u.disp.close() }

// BarrierSetup implements api.HWSync.
func (u *Unit) BarrierSetup(id int, mask uint32) {
	b := &u.barriers[id]
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.arrived != 0 {
		panic(api.Contract("eu: barrier reconfigured while cores are waiting").WithContext("barrier", id))
	}
	b.mask = mask
}

// BarrierTrigWaitClear implements api.HWSync.
func (u *Unit) BarrierTrigWaitClear(core, id int) {
	b := &u.barriers[id]
	bit := uint32(1) << uint(core)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mask&bit == 0 {
		panic(api.Contract("eu: core not in barrier mask").WithContext("barrier", id).WithContext("core", core))
	}
	b.arrived |= bit
	if b.arrived == b.mask {
		b.arrived = 0
		b.gen++
		b.cond.Broadcast()
		return
	}
	for gen := b.gen; gen == b.gen; {
		b.cond.Wait()
	}
}

// MutexLock implements api.HWSync.
func (u *Unit) MutexLock(id int) { u.mutexes[id].Lock() }

// MutexUnlock implements api.HWSync.
func (u *Unit) MutexUnlock(id int) { u.mutexes[id].Unlock() }
