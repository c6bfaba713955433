// File: core/irq/vector.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Vector table and the illegal instruction report.

package irq

// NumLines is the number of interrupt lines of the controller.
const NumLines = 64

// Handler services one interrupt line. It runs masked on the owning core.
type Handler func(line int)

// IllegalHook receives illegal instruction reports.
type IllegalHook func(pc, opcode uint32)

// SetHandler installs h for line, replacing any previous handler. A nil h
// removes the handler.
func (c *Controller) SetHandler(line int, h Handler) error {
	if line < 0 || line >= NumLines {
		return ErrBadLine
	}
	if h == nil {
		c.vectors[line].Store(nil)
		return nil
	}
	c.vectors[line].Store(&h)
	return nil
}

// SetIllegalHook installs the user hook called by IllegalInstruction.
func (c *Controller) SetIllegalHook(h IllegalHook) {
	if h == nil {
		c.illegal.Store(nil)
		return
	}
	c.illegal.Store(&h)
}

// IllegalInstruction reports a trapped illegal instruction.
func (c *Controller) IllegalInstruction(pc, opcode uint32) {
	c.log.Warning().
		Uint64("pc", uint64(pc)).
		Uint64("opcode", uint64(opcode)).
		Log("illegal instruction")
	if h := c.illegal.Load(); h != nil {
		(*h)(pc, opcode)
	}
}

func (c *Controller) dispatch(line int) {
	h := c.vectors[line].Load()
	if h == nil {
		c.spurious.Add(1)
		return
	}
	c.handled.Add(1)
	(*h)(line)
}
