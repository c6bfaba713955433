// File: pool/arena.go
// Package pool implements budgeted block allocation per memory domain.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/internal/concurrency"
)

var _ api.BlockAllocator = (*Arena)(nil)

const defaultRecycleDepth = 256

// DomainStats is the usage of one memory domain.
type DomainStats struct {
	Budget     int
	Used       int
	TotalAlloc uint64
	TotalFree  uint64
	Failures   uint64
}

// domain is the budget and the recycled blocks of one memory domain.
type domain struct {
	budget int
	used   atomic.Int64

	mu      sync.Mutex
	classes map[int]*concurrency.FIFO[[]byte]

	totalAlloc atomic.Uint64
	totalFree  atomic.Uint64
	failures   atomic.Uint64
}

func (d *domain) class(size int) *concurrency.FIFO[[]byte] {
	d.mu.Lock()
	defer d.mu.Unlock()
	q, ok := d.classes[size]
	if !ok {
		q = concurrency.NewFIFO[[]byte](defaultRecycleDepth)
		d.classes[size] = q
	}
	return q
}

// Arena serves blocks from per-domain byte budgets. Recycled blocks count
// against the budget until they are reused.
type Arena struct {
	mu      sync.RWMutex
	domains map[api.MemDomain]*domain
}

// NewArena creates an arena with no domain configured.
func NewArena() *Arena {
	return &Arena{domains: make(map[api.MemDomain]*domain)}
}

// AddDomain sets the byte budget of d. A budget of zero is unlimited.
func (a *Arena) AddDomain(d api.MemDomain, budget int) error {
	if budget < 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "pool: negative budget").
			WithContext("domain", d.String()).WithContext("budget", budget)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.domains[d]; ok {
		return api.NewError(api.ErrCodeAlreadyExists, "pool: domain configured twice").
			WithContext("domain", d.String())
	}
	a.domains[d] = &domain{budget: budget, classes: make(map[int]*concurrency.FIFO[[]byte])}
	return nil
}

func (a *Arena) domain(d api.MemDomain) *domain {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.domains[d]
}

// Alloc implements api.BlockAllocator.
func (a *Arena) Alloc(d api.MemDomain, size int) ([]byte, error) {
	if size <= 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "pool: block size must be positive").
			WithContext("size", size)
	}
	dom := a.domain(d)
	if dom == nil {
		return nil, api.NewError(api.ErrCodeNotFound, "pool: unknown domain").
			WithContext("domain", d.String())
	}
	if b, ok := dom.class(size).TryPop(); ok {
		dom.totalAlloc.Add(1)
		clear(b)
		return b, nil
	}
	for {
		used := dom.used.Load()
		if dom.budget > 0 && int(used)+size > dom.budget {
			dom.failures.Add(1)
			return nil, api.NewError(api.ErrCodeResourceExhausted, "pool: domain budget exhausted").
				WithContext("domain", d.String()).WithContext("used", used).
				WithContext("budget", dom.budget).WithContext("requested", size)
		}
		if dom.used.CompareAndSwap(used, used+int64(size)) {
			break
		}
	}
	dom.totalAlloc.Add(1)
	return make([]byte, size), nil
}

// Free implements api.BlockAllocator.
func (a *Arena) Free(d api.MemDomain, block []byte) {
	dom := a.domain(d)
	if dom == nil || len(block) == 0 {
		return
	}
	dom.totalFree.Add(1)
	if dom.class(len(block)).TryPush(block) {
		return
	}
	dom.used.Add(-int64(len(block)))
}

// Stats returns the usage of every domain.
func (a *Arena) Stats() map[api.MemDomain]DomainStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[api.MemDomain]DomainStats, len(a.domains))
	for id, d := range a.domains {
		out[id] = DomainStats{
			Budget:     d.budget,
			Used:       int(d.used.Load()),
			TotalAlloc: d.totalAlloc.Load(),
			TotalFree:  d.totalFree.Load(),
			Failures:   d.failures.Load(),
		}
	}
	return out
}
