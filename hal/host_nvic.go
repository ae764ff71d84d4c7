//go:build !tinygo

package hal

import (
	"math/bits"
	"sync"
)

// HostInterrupts models a nested vectored interrupt controller.
//
// Raise may be called from any goroutine; the handler then runs on that goroutine, serialised
// against other handlers and against Mask/Unmask critical sections.
type HostInterrupts struct {
	mu       sync.Mutex
	enabled  uint32
	pending  uint32
	handlers [MaxIRQ]func()

	// primask is held while a handler runs or while interrupts are masked.
	primask sync.Mutex
}

// NewHostInterrupts returns a controller with every line disabled.
func NewHostInterrupts() *HostInterrupts {
	return &HostInterrupts{}
}

func (c *HostInterrupts) SetHandler(irq IRQ, fn func()) {
	c.mu.Lock()
	c.handlers[irq] = fn
	c.mu.Unlock()
}

func (c *HostInterrupts) Enable(irq IRQ) {
	c.mu.Lock()
	c.enabled |= 1 << irq
	c.mu.Unlock()
	c.dispatch()
}

func (c *HostInterrupts) Disable(irq IRQ) {
	c.mu.Lock()
	c.enabled &^= 1 << irq
	c.mu.Unlock()
}

func (c *HostInterrupts) ClearPending(irq IRQ) {
	c.mu.Lock()
	c.pending &^= 1 << irq
	c.mu.Unlock()
}

func (c *HostInterrupts) Raise(irq IRQ) {
	c.mu.Lock()
	c.pending |= 1 << irq
	c.mu.Unlock()
	c.dispatch()
}

func (c *HostInterrupts) Mask()   { c.primask.Lock() }
func (c *HostInterrupts) Unmask() { c.primask.Unlock() }

// Enabled reports whether irq is enabled.
func (c *HostInterrupts) Enabled(irq IRQ) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled&(1<<irq) != 0
}

// Pending reports whether irq is pending.
func (c *HostInterrupts) Pending(irq IRQ) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending&(1<<irq) != 0
}

// dispatch runs handlers for enabled pending lines, lowest number first. Entering a handler
// clears its pending bit. A line with no handler stays pending.
func (c *HostInterrupts) dispatch() {
	for {
		c.mu.Lock()
		ready := c.pending & c.enabled
		var fn func()
		for ready != 0 {
			irq := bits.TrailingZeros32(ready)
			ready &^= 1 << irq
			if c.handlers[irq] != nil {
				c.pending &^= 1 << irq
				fn = c.handlers[irq]
				break
			}
		}
		c.mu.Unlock()
		if fn == nil {
			return
		}

		c.primask.Lock()
		fn()
		c.primask.Unlock()
	}
}
