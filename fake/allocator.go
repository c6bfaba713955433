// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake block allocator with a byte budget, for testing exhaustion paths.

package fake

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-rt/api"
)

var _ api.BlockAllocator = (*Allocator)(nil)

// Allocator serves blocks from the Go heap until Budget bytes are live.
// A zero Budget is unlimited.
type Allocator struct {
	mu     sync.Mutex
	Budget int
	live   int
	allocs int
	frees  int
	fails  int
}

// NewAllocator creates a fake allocator with the given byte budget.
func NewAllocator(budget int) *Allocator {
	return &Allocator{Budget: budget}
}

// Alloc implements api.BlockAllocator.
func (a *Allocator) Alloc(domain api.MemDomain, size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Budget > 0 && a.live+size > a.Budget {
		a.fails++
		return nil, fmt.Errorf("fake %s: %d bytes: %w", domain, size, api.ErrResourceExhausted)
	}
	a.live += size
	a.allocs++
	return make([]byte, size), nil
}

// Free implements api.BlockAllocator.
func (a *Allocator) Free(_ api.MemDomain, block []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.live -= len(block)
	a.frees++
}

// Live returns the number of bytes currently allocated.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// Counts returns the number of successful allocations, frees and failures.
func (a *Allocator) Counts() (allocs, frees, fails int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs, a.frees, a.fails
}
