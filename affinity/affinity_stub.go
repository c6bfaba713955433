//go:build !linux && !windows
// +build !linux,!windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.
// Returns error to indicate unavailability.

package affinity

import (
	"fmt"

	"github.com/momentics/hioload-rt/api"
)

func pinPlatform(cpuID int) (func() error, error) {
	return nil, fmt.Errorf("affinity: cpu %d: %w", cpuID, api.ErrNotSupported)
}

// Allowed is not available on this platform.
func Allowed() ([]int, error) {
	return nil, fmt.Errorf("affinity: %w", api.ErrNotSupported)
}
