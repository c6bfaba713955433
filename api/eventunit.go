// File: api/eventunit.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Hardware abstraction of the cluster event unit: barriers, mutexes, the
// dispatch FIFO and the loop-sharing registers. Core identifiers are passed
// explicitly since the simulated cores have no per-core CSR to read.

package api

// LoopState is the status returned by a read of the loop-state register.
type LoopState uint8

const (
	// LoopInit: the caller is the first to reach this loop instance and must
	// write the loop bounds.
	LoopInit LoopState = iota
	// LoopDone: the loop is initialized and chunks may be claimed.
	LoopDone
	// LoopSkip: the loop has been fully consumed by other cores.
	LoopSkip
)

func (s LoopState) String() string {
	switch s {
	case LoopInit:
		return "init"
	case LoopDone:
		return "done"
	case LoopSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// EventUnit is the per-cluster synchronization unit.
type EventUnit interface {
	// Version is the hardware revision; 3 and above provide HWSync.
	Version() int
	NumCores() int
	Dispatcher() Dispatcher
	Loop() LoopUnit
	// Close releases cores blocked on the dispatch FIFO.
	Close()
}

// HWSync is provided by event units with hardware barrier and mutex
// registers.
type HWSync interface {
	// BarrierSetup configures barrier id for the cores in mask.
	BarrierSetup(id int, mask uint32)
	// BarrierTrigWaitClear marks the arrival of core and blocks until every
	// core of the barrier arrived.
	BarrierTrigWaitClear(core, id int)
	MutexLock(id int)
	MutexUnlock(id int)
}

// EventLineSync is provided by older event units: a barrier counter raising
// a general-purpose event line, which each core waits for and clears.
type EventLineSync interface {
	BarrierSetup(id int, mask uint32)
	BarrierNotify(core, id int)
	EvtWait(core int)
	GPEvtClear(core, id int)
}

// Dispatcher is the hardware dispatch FIFO feeding the cores' wake loop.
type Dispatcher interface {
	// Push appends words to the FIFO of every core in mask.
	Push(mask uint32, words ...any)
	// Pop blocks until a word is available for core. ok is false once the
	// unit is closed and the FIFO drained.
	Pop(core int) (word any, ok bool)
}

// LoopUnit is the loop-sharing register set. Claims are atomic.
type LoopUnit interface {
	State(core, id int) LoopState
	Setup(id, start, end, incr, chunk int)
	// Claim reserves the next chunk: [start, start+size). size 0 means the
	// loop is exhausted.
	Claim(core, id int) (start, size int)
	// Single reports whether core is the first to reach the current single
	// construct.
	Single(core, id int) bool
	// Rebase aligns the loop instance counters of the cores in mask before
	// they start a region together.
	Rebase(mask uint32)
}
