// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import "sync/atomic"

// Counter is a manually advanced 64-bit timer counter.
type Counter struct{ v atomic.Uint64 }

func (c *Counter) Count64() uint64     { return c.v.Load() }
func (c *Counter) SetCount64(v uint64) { c.v.Store(v) }
func (c *Counter) Advance(d uint64)    { c.v.Add(d) }
