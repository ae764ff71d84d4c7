//go:build tinygo && nrf52833

package hal

import (
	"device/arm"
	"device/nrf"
	"runtime/interrupt"
)

// nvic routes the three driver interrupt lines to handlers installed at run time.
type nvic struct {
	handlers [MaxIRQ]func()
	state    interrupt.State
}

var theNVIC nvic

func init() {
	interrupt.New(nrf.IRQ_RADIO, isrRadio)
	interrupt.New(nrf.IRQ_UARTE0_UART0, isrUART)
	interrupt.New(nrf.IRQ_TIMER1, isrTimer1)
}

func isrRadio(interrupt.Interrupt)  { theNVIC.dispatch(IRQRadio) }
func isrUART(interrupt.Interrupt)   { theNVIC.dispatch(IRQUART) }
func isrTimer1(interrupt.Interrupt) { theNVIC.dispatch(IRQTimer1) }

func (c *nvic) dispatch(irq IRQ) {
	if fn := c.handlers[irq]; fn != nil {
		fn()
	}
}

func (c *nvic) SetHandler(irq IRQ, fn func()) {
	if irq < MaxIRQ {
		c.handlers[irq] = fn
	}
}

func (c *nvic) Enable(irq IRQ)  { arm.EnableIRQ(uint32(irq)) }
func (c *nvic) Disable(irq IRQ) { arm.DisableIRQ(uint32(irq)) }

func (c *nvic) ClearPending(irq IRQ) { arm.NVIC.ICPR[irq>>5].Set(1 << (irq & 31)) }
func (c *nvic) Raise(irq IRQ)        { arm.NVIC.ISPR[irq>>5].Set(1 << (irq & 31)) }

// Mask and Unmask do not nest.
func (c *nvic) Mask()   { c.state = interrupt.Disable() }
func (c *nvic) Unmask() { interrupt.Restore(c.state) }
