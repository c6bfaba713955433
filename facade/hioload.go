// File: facade/hioload.go
// Unified boot facade for the hioload-rt runtime.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file defines the Runtime struct, which aggregates the control core
// (interrupt controller, threads, event kernel, timer, system callbacks) and
// the compute cluster (event unit, work-sharing runtime, worker cores)
// behind a single facade, built from an immutable platform configuration.

package facade

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/momentics/hioload-rt/adapters"
	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/control"
	"github.com/momentics/hioload-rt/core/cbsys"
	"github.com/momentics/hioload-rt/core/cluster"
	"github.com/momentics/hioload-rt/core/eu"
	"github.com/momentics/hioload-rt/core/event"
	"github.com/momentics/hioload-rt/core/irq"
	"github.com/momentics/hioload-rt/core/omp"
	"github.com/momentics/hioload-rt/core/thread"
	"github.com/momentics/hioload-rt/core/timer"
	"github.com/momentics/hioload-rt/internal/logging"
	"github.com/momentics/hioload-rt/pool"
)

// Config holds parameters immutable per run.
type Config struct {
	Platform      control.PlatformConfig // Chip description
	LogWriter     io.Writer              // Log destination, stderr when nil
	Logger        *logging.Logger        // Overrides LogWriter and the platform log level
	Counter       api.CounterSource      // Timer counter, host clock when nil
	ExecutorLine  int                    // Interrupt line of the foreign task mailbox
	ExecutorDepth int                    // Mailbox capacity
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		Platform:      control.DefaultPlatformConfig(),
		ExecutorLine:  irq.NumLines - 1, // Last line, clear of device lines
		ExecutorDepth: 256,              // Pending foreign tasks
	}
}

// Runtime is the booted system.
type Runtime struct {
	config *Config
	log    *logging.Logger

	control *adapters.ControlAdapter
	arena   *pool.Arena
	sys     *cbsys.Registry

	irq      *irq.Controller
	threads  *thread.Runtime
	kernel   *event.Kernel
	timer    *timer.Driver
	executor *adapters.EventExecutor

	unit    api.EventUnit
	omp     *omp.Runtime
	cluster *cluster.Cluster

	mu      sync.Mutex
	started bool
}

// Boot builds every subsystem. The calling goroutine becomes the control
// core main thread: event kernel calls must be made from it or from threads
// it spawns.
func Boot(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := cfg.Platform
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r := &Runtime{config: cfg, log: cfg.Logger}
	if r.log == nil {
		lvl, _ := logging.ParseLevel(p.LogLevel)
		r.log = logging.New(cfg.LogWriter, lvl)
	}

	r.control = adapters.NewControlAdapter(p)
	r.control.OnReload(func() { r.log.Info().Log("configuration reloaded") })

	r.arena = pool.NewArena()
	if err := r.arena.AddDomain(api.DomainFC, p.FCHeapBytes); err != nil {
		return nil, err
	}
	if err := r.arena.AddDomain(api.DomainCluster(0), p.ClusterHeapBytes); err != nil {
		return nil, err
	}

	r.sys = cbsys.New()
	r.irq = irq.New(irq.WithLogger(r.log))
	r.threads = thread.New(r.irq, thread.WithLogger(r.log))
	r.kernel = event.NewKernel(r.irq, r.threads, r.arena, event.WithLogger(r.log))

	counter := cfg.Counter
	if counter == nil {
		counter = timer.NewHostCounter(p.RefClockHz)
	}
	var err error
	r.timer, err = timer.Init(r.sys, counter, p.RefClockHz, timer.WithLogger(r.log))
	if err != nil {
		r.log.Crit().Err(err).Stringer("code", api.CodeOf(err)).Log("unable to initialize time driver")
		return nil, err
	}

	if p.Events > 0 {
		if err := r.kernel.Alloc(nil, p.Events); err != nil {
			return nil, fmt.Errorf("facade: preallocate events: %w", err)
		}
	}
	r.executor, err = adapters.NewEventExecutor(r.kernel, nil, r.irq, cfg.ExecutorLine, cfg.ExecutorDepth)
	if err != nil {
		return nil, err
	}

	if p.EventUnitVersion >= eu.Version {
		r.unit, err = eu.New(p.Cores, eu.WithDispatchDepth(p.DispatchDepth))
	} else {
		r.unit, err = eu.NewLegacy(p.Cores, eu.WithDispatchDepth(p.DispatchDepth))
	}
	if err != nil {
		return nil, err
	}
	r.omp, err = omp.New(r.unit, p.CoreMask(), omp.WithLogger(r.log))
	if err != nil {
		return nil, err
	}
	r.cluster = cluster.New(r.omp, cluster.WithLogger(r.log), cluster.WithPinning(p.PinCores))

	r.registerProbes()
	r.log.Info().
		Int("cores", p.Cores).
		Int("eu_version", r.unit.Version()).
		Int("events", p.Events).
		Log("runtime booted")
	return r, nil
}

func (r *Runtime) registerProbes() {
	r.control.RegisterDebugProbe("pool.domains", func() any {
		out := make(map[string]pool.DomainStats)
		for d, st := range r.arena.Stats() {
			out[d.String()] = st
		}
		return out
	})
	r.control.RegisterDebugProbe("irq", func() any {
		handled, spurious := r.irq.Stats()
		return map[string]uint64{"handled": handled, "spurious": spurious}
	})
	r.control.RegisterDebugProbe("cluster", func() any {
		return map[string]int{"cores": r.omp.NumCores(), "eu_version": r.unit.Version()}
	})
	r.control.RegisterDebugProbe("time_us", func() any { return r.timer.NowMicros() })
}

// Start launches the cluster cores and runs the Start callbacks. Subsequent
// calls have no effect.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	if err := r.cluster.Start(ctx); err != nil {
		return err
	}
	if err := r.sys.Exec(cbsys.Start); err != nil {
		return err
	}
	r.started = true
	return nil
}

// Stop runs the Stop callbacks, stops the cluster, rejects foreign tasks
// and releases an idle control core. Calling Stop on a stopped runtime is a
// no-op.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return nil
	}
	r.started = false
	err := r.sys.Exec(cbsys.Stop)
	if cerr := r.cluster.Stop(); err == nil {
		err = cerr
	}
	r.executor.Close()
	r.irq.Close()
	r.log.Info().Log("runtime stopped")
	return err
}

// PowerOff runs the power-off callbacks.
func (r *Runtime) PowerOff() error { return r.sys.Exec(cbsys.PowerOff) }

// PowerOn runs the power-on callbacks.
func (r *Runtime) PowerOn() error { return r.sys.Exec(cbsys.PowerOn) }

// PublishStats copies event kernel counters into the metrics. Must run on
// the control core.
func (r *Runtime) PublishStats() {
	st := r.kernel.Stats()
	r.control.SetMetric("event.allocated", st.Allocated)
	r.control.SetMetric("event.free", st.Free)
	r.control.SetMetric("event.in_use", st.InUse)
	r.control.SetMetric("event.alloc_failures", st.AllocFailures)
	ds := r.kernel.Default().Stats()
	r.control.SetMetric("sched.pushed", ds.Pushed)
	r.control.SetMetric("sched.executed", ds.Executed)
	r.control.SetMetric("sched.waits", ds.Waits)
	r.control.SetMetric("executor.backlog", r.executor.Backlog())
}

// Submit hands task to the control core from any goroutine. It runs when
// the core executes its default scheduler.
func (r *Runtime) Submit(task func()) error { return r.executor.Submit(task) }

// Control returns the configuration, metrics and probe interface.
func (r *Runtime) Control() *adapters.ControlAdapter { return r.control }

// Kernel returns the event kernel of the control core.
func (r *Runtime) Kernel() *event.Kernel { return r.kernel }

// Threads returns the thread runtime of the control core.
func (r *Runtime) Threads() *thread.Runtime { return r.threads }

// IRQ returns the interrupt controller of the control core.
func (r *Runtime) IRQ() *irq.Controller { return r.irq }

// Timer returns the timer driver.
func (r *Runtime) Timer() api.Timer { return r.timer }

// Callbacks returns the system callback registry.
func (r *Runtime) Callbacks() *cbsys.Registry { return r.sys }

// Cluster returns the compute cluster.
func (r *Runtime) Cluster() *cluster.Cluster { return r.cluster }

// OMP returns the work-sharing runtime.
func (r *Runtime) OMP() *omp.Runtime { return r.omp }

// Logger returns the runtime logger.
func (r *Runtime) Logger() *logging.Logger { return r.log }
