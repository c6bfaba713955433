//go:build windows
// +build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation for setting thread CPU affinity.

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// pinPlatform binds the calling thread to cpuID with SetThreadAffinityMask.
func pinPlatform(cpuID int) (func() error, error) {
	if cpuID >= 64 {
		return nil, fmt.Errorf("affinity: cpu %d beyond the affinity mask", cpuID)
	}
	hThread, _, _ := procGetCurrentThread.Call()
	prev, _, err := procSetThreadAffinityMask.Call(hThread, uintptr(1)<<uint(cpuID))
	if prev == 0 {
		return nil, fmt.Errorf("affinity: SetThreadAffinityMask: %w", err)
	}
	return func() error {
		if ret, _, err := procSetThreadAffinityMask.Call(hThread, prev); ret == 0 {
			return err
		}
		return nil
	}, nil
}

// Allowed returns the CPUs visible to the Go runtime.
func Allowed() ([]int, error) {
	cpus := make([]int, runtime.NumCPU())
	for i := range cpus {
		cpus[i] = i
	}
	return cpus, nil
}
