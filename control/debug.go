// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Debug probe registry and JSON state export.

package control

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sugawarayuuta/sonnet"

	"github.com/momentics/hioload-rt/affinity"
	"github.com/momentics/hioload-rt/api"
)

var _ api.Debug = (*DebugProbes)(nil)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook, replacing one with the same name.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes. Probes run outside the lock.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	probes := make(map[string]func() any, len(dp.probes))
	for k, fn := range dp.probes {
		probes[k] = fn
	}
	dp.mu.RUnlock()

	out := make(map[string]any, len(probes))
	for k, fn := range probes {
		out[k] = fn()
	}
	return out
}

// DumpJSON encodes DumpState as a JSON object.
func (dp *DebugProbes) DumpJSON() ([]byte, error) {
	b, err := sonnet.Marshal(dp.DumpState())
	if err != nil {
		return nil, fmt.Errorf("control: encode probes: %w", err)
	}
	return b, nil
}

// RegisterPlatformProbes sets host platform debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.allowed_cpus", func() any {
		cpus, err := affinity.Allowed()
		if err != nil {
			return err.Error()
		}
		return cpus
	})
}
