// File: core/cbsys/cbsys.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package cbsys is the registry of system callbacks run on power and
// lifecycle transitions.
package cbsys

import (
	"errors"
	"fmt"
	"sync"
)

// Kind identifies a system transition.
type Kind int

const (
	PowerOff Kind = iota
	PowerOn
	Start
	Stop
	numKinds
)

func (k Kind) String() string {
	switch k {
	case PowerOff:
		return "poweroff"
	case PowerOn:
		return "poweron"
	case Start:
		return "start"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Callback runs on a transition. A non-nil error aborts the remaining
// callbacks of the transition.
type Callback func(kind Kind, arg any) error

// ErrBadKind is returned for an unknown transition kind.
var ErrBadKind = errors.New("cbsys: unknown callback kind")

type entry struct {
	id  int
	fn  Callback
	arg any
}

// Registry holds callbacks per kind, newest first.
type Registry struct {
	mu     sync.Mutex
	lists  [numKinds][]entry
	nextID int
}

// New returns an empty registry.
func New() *Registry { return &Registry{} }

// Add registers fn for kind and returns a handle for Remove.
func (r *Registry) Add(kind Kind, fn Callback, arg any) (int, error) {
	if kind < 0 || kind >= numKinds {
		return 0, fmt.Errorf("%w: %d", ErrBadKind, int(kind))
	}
	if fn == nil {
		return 0, errors.New("cbsys: nil callback")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.lists[kind] = append([]entry{{id: r.nextID, fn: fn, arg: arg}}, r.lists[kind]...)
	return r.nextID, nil
}

// Remove unregisters the callback with handle id.
func (r *Registry) Remove(kind Kind, id int) bool {
	if kind < 0 || kind >= numKinds {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lists[kind]
	for i, e := range l {
		if e.id == id {
			r.lists[kind] = append(l[:i:i], l[i+1:]...)
			return true
		}
	}
	return false
}

// Exec runs the callbacks of kind, newest first, stopping at the first error.
func (r *Registry) Exec(kind Kind) error {
	if kind < 0 || kind >= numKinds {
		return fmt.Errorf("%w: %d", ErrBadKind, int(kind))
	}
	r.mu.Lock()
	l := append([]entry(nil), r.lists[kind]...)
	r.mu.Unlock()
	for _, e := range l {
		if err := e.fn(kind, e.arg); err != nil {
			return fmt.Errorf("cbsys: %s callback %d: %w", kind, e.id, err)
		}
	}
	return nil
}

// Len returns the number of callbacks registered for kind.
func (r *Registry) Len(kind Kind) int {
	if kind < 0 || kind >= numKinds {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists[kind])
}
