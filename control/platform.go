// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Static platform description, loaded from TOML at boot.

package control

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/internal/logging"
)

// PlatformConfig describes the simulated chip.
type PlatformConfig struct {
	// Cores is the number of enabled cluster cores.
	Cores int `toml:"cores"`
	// EventUnitVersion selects the event unit model; 3 and above have
	// hardware barriers and mutexes.
	EventUnitVersion int `toml:"event_unit_version"`
	// RefClockHz is the reference clock feeding the control core timer.
	RefClockHz uint64 `toml:"ref_clock_hz"`
	// FCHeapBytes and ClusterHeapBytes are the allocator budgets, 0 for
	// unlimited.
	FCHeapBytes      int `toml:"fc_heap_bytes"`
	ClusterHeapBytes int `toml:"cluster_heap_bytes"`
	// Events is the number of events preallocated at boot.
	Events int `toml:"events"`
	// PinCores lists host CPUs cluster cores are bound to, empty for none.
	PinCores []int `toml:"pin_cores"`
	// LogLevel is a logging level name.
	LogLevel string `toml:"log_level"`
	// DispatchDepth is the per-core dispatch FIFO depth in words.
	DispatchDepth int `toml:"dispatch_depth"`
}

// DefaultPlatformConfig returns an 8 core, revision 3 platform.
func DefaultPlatformConfig() PlatformConfig {
	return PlatformConfig{
		Cores:            8,
		EventUnitVersion: 3,
		RefClockHz:       32768,
		FCHeapBytes:      64 << 10,
		ClusterHeapBytes: 64 << 10,
		Events:           16,
		LogLevel:         "info",
		DispatchDepth:    16,
	}
}

// ParsePlatformConfig decodes text over the defaults. Unknown keys are
// rejected.
func ParsePlatformConfig(text string) (PlatformConfig, error) {
	cfg := DefaultPlatformConfig()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return PlatformConfig{}, fmt.Errorf("control: platform config: %w", err)
	}
	return cfg, checkDecoded(md, cfg)
}

// LoadPlatformConfig reads and decodes the TOML file at path.
func LoadPlatformConfig(path string) (PlatformConfig, error) {
	cfg := DefaultPlatformConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return PlatformConfig{}, fmt.Errorf("control: platform config %s: %w", path, err)
	}
	return cfg, checkDecoded(md, cfg)
}

func checkDecoded(md toml.MetaData, cfg PlatformConfig) error {
	if und := md.Undecoded(); len(und) > 0 {
		keys := make([]string, len(und))
		for i, k := range und {
			keys[i] = k.String()
		}
		return fmt.Errorf("control: unknown platform keys %s: %w", strings.Join(keys, ", "), api.ErrInvalidArgument)
	}
	return cfg.Validate()
}

// Validate checks the configuration for consistency.
func (c PlatformConfig) Validate() error {
	var errs []error
	if c.Cores < 1 || c.Cores > 16 {
		errs = append(errs, fmt.Errorf("cores %d not in [1, 16]", c.Cores))
	}
	if c.EventUnitVersion < 1 {
		errs = append(errs, fmt.Errorf("event_unit_version %d", c.EventUnitVersion))
	}
	if c.RefClockHz == 0 {
		errs = append(errs, errors.New("ref_clock_hz must be set"))
	}
	if c.FCHeapBytes < 0 || c.ClusterHeapBytes < 0 {
		errs = append(errs, errors.New("heap budgets must not be negative"))
	}
	if c.Events < 0 {
		errs = append(errs, fmt.Errorf("events %d", c.Events))
	}
	if c.DispatchDepth < 2 {
		errs = append(errs, fmt.Errorf("dispatch_depth %d below 2", c.DispatchDepth))
	}
	for _, cpu := range c.PinCores {
		if cpu < 0 {
			errs = append(errs, fmt.Errorf("pin_cores entry %d", cpu))
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("control: invalid platform config: %w: %w", api.ErrInvalidArgument, errors.Join(errs...))
}

// CoreMask returns the bitmask of enabled cores.
func (c PlatformConfig) CoreMask() uint32 {
	return uint32(1)<<uint(c.Cores) - 1
}

// Map flattens the configuration with its TOML key names.
func (c PlatformConfig) Map() map[string]any {
	return map[string]any{
		"cores":              c.Cores,
		"event_unit_version": c.EventUnitVersion,
		"ref_clock_hz":       c.RefClockHz,
		"fc_heap_bytes":      c.FCHeapBytes,
		"cluster_heap_bytes": c.ClusterHeapBytes,
		"events":             c.Events,
		"pin_cores":          append([]int(nil), c.PinCores...),
		"log_level":          c.LogLevel,
		"dispatch_depth":     c.DispatchDepth,
	}
}
