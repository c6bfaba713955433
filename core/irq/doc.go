// File: core/irq/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package irq simulates the interrupt controller of a single core.
//
// Devices running on any goroutine raise a line with Trigger. The registered
// handler runs on the goroutine currently owning the core, at the next point
// where interrupts become unmasked (Enable, Restore of an enabled state, or
// Disable from an enabled state), or when the core idles in
// WaitForInterrupt and then unmasks. A handler never runs inside a masked
// section and never nests.
package irq
