// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection layer of the
// hioload-rt runtime.
//
// Provides concurrent-safe state handling primitives including:
//   - The platform description loaded from TOML (core count, event unit
//     revision, reference clock, heap budgets)
//   - A dynamic key/value store with reload listeners
//   - Metrics telemetry and probe registration with JSON state export
package control
