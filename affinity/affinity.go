// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for binding a simulated core to a host CPU.
// Platform-specific implementations are located in separate files
// (affinity_linux.go, affinity_windows.go, etc.) guarded by build tags.

package affinity

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-rt/api"
)

var _ api.Affinity = (*Pinner)(nil)

// Pinner binds the calling goroutine's OS thread to one CPU. A Pinner
// belongs to the goroutine that called Pin.
type Pinner struct {
	restore func() error
}

// New returns an unpinned Pinner.
func New() *Pinner { return &Pinner{} }

// Pin locks the goroutine to its OS thread and binds the thread to cpuID.
func (p *Pinner) Pin(cpuID int) error {
	if p.restore != nil {
		return fmt.Errorf("affinity: already pinned: %w", api.ErrAlreadyExists)
	}
	if cpuID < 0 {
		return fmt.Errorf("affinity: cpu %d: %w", cpuID, api.ErrInvalidArgument)
	}
	runtime.LockOSThread()
	restore, err := pinPlatform(cpuID)
	if err != nil {
		runtime.UnlockOSThread()
		return err
	}
	p.restore = restore
	return nil
}

// Unpin restores the previous CPU set and unlocks the OS thread.
func (p *Pinner) Unpin() error {
	if p.restore == nil {
		return nil
	}
	err := p.restore()
	p.restore = nil
	runtime.UnlockOSThread()
	return err
}

// SetAffinity pins the current OS thread to cpuID without saving the
// previous binding. The caller must hold runtime.LockOSThread.
func SetAffinity(cpuID int) error {
	_, err := pinPlatform(cpuID)
	return err
}
