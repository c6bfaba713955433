// File: api/timer.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Monotonic time source contracts.

package api

// CounterSource is a free-running 64-bit hardware counter clocked by the
// reference clock.
type CounterSource interface {
	Count64() uint64
	SetCount64(v uint64)
}

// Timer supplies monotonic microsecond time.
type Timer interface {
	NowMicros() uint64
}
