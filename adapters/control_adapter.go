// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/control"
)

var _ api.Control = (*ControlAdapter)(nil)

// ControlAdapter exposes the platform configuration, metrics and probes of
// a booted runtime.
type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

// NewControlAdapter seeds the config store with cfg and registers the host
// platform probes.
func NewControlAdapter(cfg control.PlatformConfig) *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	adapter.config.Seed(cfg.Map())
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	return c.config.SetConfig(cfg)
}

// Stats merges metrics with the probe outputs, prefixed "debug.".
func (c *ControlAdapter) Stats() map[string]any {
	stats := c.metrics.GetSnapshot()
	debugStats := c.debug.DumpState()
	combined := make(map[string]any, len(stats)+len(debugStats))
	for k, v := range stats {
		combined[k] = v
	}
	for k, v := range debugStats {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

// AddCounter increments a monotonic counter.
func (c *ControlAdapter) AddCounter(key string, delta uint64) {
	c.metrics.Add(key, delta)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// DumpJSON encodes the probe outputs.
func (c *ControlAdapter) DumpJSON() ([]byte, error) {
	return c.debug.DumpJSON()
}

// Reload re-reads the platform file at path.
func (c *ControlAdapter) Reload(path string) error {
	return control.ReloadPlatformConfig(c.config, path)
}
