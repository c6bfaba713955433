// Package api
// Author: momentics
//
// Executor contract for handing work to a runtime core from foreign goroutines.

package api

// Executor abstracts task submission onto a core.
type Executor interface {
	// Submit schedules task for execution. Safe from any goroutine.
	Submit(task func()) error

	// NumWorkers returns the number of cores serving the executor.
	NumWorkers() int
}
