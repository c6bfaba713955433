// File: core/event/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package event

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-rt/api"
)

var (
	// ErrNoEvents is returned by PushCallback when the pool is empty.
	ErrNoEvents = fmt.Errorf("event: no free event: %w", api.ErrResourceExhausted)
	// ErrFreeUnderflow is returned by Free when asked for more events than
	// the free list holds.
	ErrFreeUnderflow = errors.New("event: free count exceeds free list")
)

func contract(msg string, ev *Event) *api.Error {
	return api.Contract("event: "+msg).WithContext("state", ev.state.String())
}
