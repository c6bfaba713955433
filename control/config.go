// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and reload propagation.

package control

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-rt/api"
)

// ConfigStore is a dynamic key/value map with snapshot and listener support.
// Keys are fixed by Seed; SetConfig only updates known keys.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
	}
}

// Seed replaces the whole configuration without notifying listeners.
func (cs *ConfigStore) Seed(values map[string]any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.config = make(map[string]any, len(values))
	for k, v := range values {
		cs.config[k] = v
	}
}

// Get returns one value.
func (cs *ConfigStore) Get(key string) (any, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[key]
	return v, ok
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// SetConfig merges new values and runs the listeners once. Nothing is
// applied when a key is unknown.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) error {
	cs.mu.Lock()
	for k := range newCfg {
		if _, ok := cs.config[k]; !ok {
			cs.mu.Unlock()
			return fmt.Errorf("control: config key %q: %w", k, api.ErrNotFound)
		}
	}
	for k, v := range newCfg {
		cs.config[k] = v
	}
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// OnReload registers a listener called after every successful SetConfig.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
