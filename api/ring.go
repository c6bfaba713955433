// Package api
// Author: momentics@gmail.com
//
// Bounded FIFO for cross-core producer/consumer transfer.

package api

// FIFO is a bounded, lock-free first-in first-out queue.
type FIFO[T any] interface {
	// TryPush adds an item, returns false if full.
	TryPush(item T) bool
	// TryPop removes the oldest item, returns false if empty.
	TryPop() (T, bool)
	// Len returns current number of items.
	Len() int
	// Cap returns buffer capacity.
	Cap() int
}
