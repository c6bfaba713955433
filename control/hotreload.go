// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Re-reads the platform file and pushes the tunable keys into a store.

package control

import "fmt"

// reloadableKeys may change while the runtime is up. The others size
// hardware models built at boot.
var reloadableKeys = []string{"log_level", "pin_cores"}

// ReloadPlatformConfig loads path and applies its reloadable keys to cs,
// which notifies the reload listeners. Changes to boot-time keys are
// reported as an error and not applied.
func ReloadPlatformConfig(cs *ConfigStore, path string) error {
	cfg, err := LoadPlatformConfig(path)
	if err != nil {
		return err
	}
	next := cfg.Map()
	current := cs.GetSnapshot()
	for k, v := range next {
		if isReloadable(k) {
			continue
		}
		if cur, ok := current[k]; ok && fmt.Sprint(cur) != fmt.Sprint(v) {
			return fmt.Errorf("control: %s changed from %v to %v: restart required", k, cur, v)
		}
	}
	update := make(map[string]any, len(reloadableKeys))
	for _, k := range reloadableKeys {
		update[k] = next[k]
	}
	return cs.SetConfig(update)
}

func isReloadable(key string) bool {
	for _, k := range reloadableKeys {
		if k == key {
			return true
		}
	}
	return false
}
