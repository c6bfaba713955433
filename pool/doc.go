// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer of the runtime: byte-budgeted arenas standing in for the
// control core data memory and the cluster shared L1. Freed blocks are
// recycled per size class through a bounded lock-free queue.
// See arena.go for implementation details.
package pool
