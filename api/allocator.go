// File: api/allocator.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Block allocator contract backing fixed-size runtime objects.

package api

import "strconv"

// MemDomain selects the memory an allocation is served from: the control
// core's private data memory or the shared L1 of one cluster.
type MemDomain int

// DomainFC is the control core data memory.
const DomainFC MemDomain = -1

// DomainCluster returns the domain of cluster id.
func DomainCluster(id int) MemDomain { return MemDomain(id) }

func (d MemDomain) String() string {
	if d == DomainFC {
		return "fc"
	}
	return "cluster" + strconv.Itoa(int(d))
}

// BlockAllocator hands out raw storage. Failure is reported, never retried
// internally; Alloc returns an error wrapping ErrResourceExhausted.
type BlockAllocator interface {
	Alloc(domain MemDomain, size int) ([]byte, error)
	Free(domain MemDomain, block []byte)
}
