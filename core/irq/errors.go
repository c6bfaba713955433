// File: core/irq/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package irq

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-rt/api"
)

// ErrBadLine is returned for a line outside the vector table.
var ErrBadLine = fmt.Errorf("irq: line out of range: %w", api.ErrInvalidArgument)

// ErrNoHandler is returned by Trigger for a line with no handler installed.
var ErrNoHandler = errors.New("irq: no handler installed")
