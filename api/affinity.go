// Package api
// Author: momentics@gmail.com
//
// CPU affinity contract used to bind simulated cores to host CPUs.

package api

// Affinity controls execution on particular host CPUs.
type Affinity interface {
	// Pin locks the calling goroutine to its OS thread and binds it to cpuID.
	Pin(cpuID int) error
	// Unpin removes the binding and unlocks the OS thread.
	Unpin() error
}
