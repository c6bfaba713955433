// File: core/cluster/cluster.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package cluster runs the cores of a compute cluster. The master core runs
// the application; every other enabled core sits in the wake loop, taking a
// region body and its argument from the dispatch FIFO, running it and
// joining the team barrier.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-rt/affinity"
	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/core/omp"
	"github.com/momentics/hioload-rt/internal/logging"
)

// ErrRunning is returned by Start on a started cluster.
var ErrRunning = errors.New("cluster: already running")

// Cluster owns the worker cores of one omp.Runtime.
type Cluster struct {
	id     int
	rt     *omp.Runtime
	master int
	cpus   []int

	mu      sync.Mutex
	g       *errgroup.Group
	cancel  context.CancelFunc
	running bool

	log *logging.Logger
}

// Option configures a Cluster.
type Option func(*Cluster)

// WithID sets the cluster identifier.
func WithID(id int) Option {
	return func(c *Cluster) { c.id = id }
}

// WithLogger sets the cluster logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Cluster) { c.log = logging.Component(l, "cluster") }
}

// WithPinning binds core i to cpus[i % len(cpus)].
func WithPinning(cpus []int) Option {
	return func(c *Cluster) { c.cpus = append([]int(nil), cpus...) }
}

// New creates a stopped cluster. The master is the lowest enabled core.
func New(rt *omp.Runtime, opts ...Option) *Cluster {
	c := &Cluster{
		rt:     rt,
		master: bits.TrailingZeros32(rt.CoreMask()),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ID returns the cluster identifier.
func (c *Cluster) ID() int { return c.id }

// Runtime returns the work-sharing runtime of the cluster.
func (c *Cluster) Runtime() *omp.Runtime { return c.rt }

// Master returns the handle of the master core.
func (c *Cluster) Master() *omp.Core { return c.rt.Core(c.master) }

// Start launches the wake loop of every enabled core but the master.
func (c *Cluster) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	for id, m := 0, c.rt.CoreMask(); m != 0; id, m = id+1, m>>1 {
		if m&1 == 0 || id == c.master {
			continue
		}
		core := c.rt.Core(id)
		g.Go(func() error { return c.serve(core) })
	}
	g.Go(func() error {
		<-ctx.Done()
		c.rt.EventUnit().Close()
		return nil
	})
	c.g, c.cancel, c.running = g, cancel, true
	c.log.Info().Int("cluster", c.id).Int("cores", c.rt.NumCores()).Log("cluster started")
	return nil
}

// Stop releases the worker cores and waits for them. It closes the event
// unit, so the cluster cannot be started again.
func (c *Cluster) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	g, cancel := c.g, c.cancel
	c.running = false
	c.mu.Unlock()

	cancel()
	err := g.Wait()
	c.log.Info().Int("cluster", c.id).Log("cluster stopped")
	return err
}

// Run executes fn on the master core, pinned when pinning is configured.
func (c *Cluster) Run(fn func(master *omp.Core) error) error {
	unpin, err := c.pin(c.master)
	if err != nil {
		return err
	}
	defer unpin()
	return fn(c.Master())
}

func (c *Cluster) serve(core *omp.Core) error {
	unpin, err := c.pin(core.ID())
	if err != nil {
		return err
	}
	defer unpin()

	disp := c.rt.EventUnit().Dispatcher()
	for {
		w, ok := disp.Pop(core.ID())
		if !ok {
			return nil
		}
		data, ok := disp.Pop(core.ID())
		if !ok {
			return nil
		}
		fn, ok := w.(omp.Func)
		if !ok {
			return api.NewError(api.ErrCodeInternal, "cluster: dispatch word is not a region body").
				WithContext("core", core.ID()).WithContext("word", fmt.Sprintf("%T", w))
		}
		fn(core, data)
		core.Barrier()
	}
}

func (c *Cluster) pin(coreID int) (func(), error) {
	if len(c.cpus) == 0 {
		return func() {}, nil
	}
	cpu := c.cpus[coreID%len(c.cpus)]
	p := affinity.New()
	if err := p.Pin(cpu); err != nil {
		return nil, fmt.Errorf("cluster %d core %d: %w", c.id, coreID, err)
	}
	c.log.Debug().Int("core", coreID).Int("cpu", cpu).Log("core pinned")
	return func() {
		if err := p.Unpin(); err != nil {
			c.log.Warning().Int("core", coreID).Err(err).Log("unpin failed")
		}
	}, nil
}
