// File: api/control.go
// Package api defines Control interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Control manages dynamic config, runtime metrics and debug probes.
type Control interface {
	GetConfig() map[string]any
	SetConfig(cfg map[string]any) error
	Stats() map[string]any
	SetMetric(key string, value any)
	OnReload(fn func())
	RegisterDebugProbe(name string, fn func() any)
}
