// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Low-level concurrency primitives shared by the simulated hardware:
// a bounded lock-free FIFO, adaptive backoff for polling loops and a
// software spin mutex.
package concurrency
