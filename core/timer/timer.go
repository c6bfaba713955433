// File: core/timer/timer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package timer is the control core timer driver: a free running 64-bit
// counter clocked by the reference clock, kept across power cycles.
package timer

import (
	"fmt"
	"sync/atomic"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/core/cbsys"
	"github.com/momentics/hioload-rt/internal/logging"
)

var _ api.Timer = (*Driver)(nil)

// Driver converts the counter to wall time and saves it on power off.
type Driver struct {
	counter api.CounterSource
	refHz   uint64
	saved   atomic.Uint64
	log     *logging.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Driver) { d.log = logging.Component(l, "timer") }
}

// Init resets the counter and registers the power hooks in reg. An error
// here is a boot failure.
func Init(reg *cbsys.Registry, counter api.CounterSource, refHz uint64, opts ...Option) (*Driver, error) {
	if refHz == 0 {
		return nil, fmt.Errorf("timer: reference clock: %w", api.ErrInvalidArgument)
	}
	d := &Driver{counter: counter, refHz: refHz}
	for _, o := range opts {
		o(d)
	}
	counter.SetCount64(0)

	if _, err := reg.Add(cbsys.PowerOff, d.powerOff, nil); err != nil {
		return nil, api.NewError(api.ErrCodeHardware, "unable to initialize time driver").Wrap(err)
	}
	if _, err := reg.Add(cbsys.PowerOn, d.powerOn, nil); err != nil {
		return nil, api.NewError(api.ErrCodeHardware, "unable to initialize time driver").Wrap(err)
	}
	d.log.Debug().Uint64("ref_hz", refHz).Log("timer initialized")
	return d, nil
}

// NowMicros returns the counter converted to microseconds. Small counts are
// scaled before dividing to keep precision; large counts divide first so the
// product cannot overflow.
func (d *Driver) NowMicros() uint64 {
	count := d.counter.Count64()
	if count>>32 == 0 {
		return count * 1_000_000 / d.refHz
	}
	return count / d.refHz * 1_000_000
}

func (d *Driver) powerOff(cbsys.Kind, any) error {
	d.saved.Store(d.counter.Count64())
	return nil
}

func (d *Driver) powerOn(cbsys.Kind, any) error {
	d.counter.SetCount64(d.saved.Load())
	return nil
}
