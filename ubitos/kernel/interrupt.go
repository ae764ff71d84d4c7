package kernel

import "ubit/hal"

// Interrupt posts an interrupt notification to task id. It never blocks and may be called from
// interrupt context. Notifications do not queue: a second one posted before the task received
// the first is absorbed.
func (k *Kernel) Interrupt(id TaskID) {
	t := k.task(id)
	if t == nil {
		return
	}
	t.irq.Store(true)
	select {
	case k.kick <- struct{}{}:
	default:
	}
}

// dispatch moves tasks blocked on a receive that accepts interrupts to the ready queue once a
// notification has been posted to them.
func (k *Kernel) dispatch() {
	defer k.wg.Done()
	for {
		select {
		case <-k.kick:
		case <-k.stop:
			return
		}
		k.mu.Lock()
		for i := 0; i < k.ntasks; i++ {
			t := k.tasks[i].Load()
			if t.state == stateRecv && acceptsInterrupt(t.filter) && t.irq.Load() {
				k.makeReady(t)
			}
		}
		k.idle.Broadcast()
		k.mu.Unlock()
	}
}

// Notifier returns a function that posts an interrupt notification to the current task.
// Custom interrupt handlers call it after acknowledging their hardware event.
func (c *Context) Notifier() func() {
	k, id := c.k, c.t.id
	return func() { k.Interrupt(id) }
}

// Connect makes the current task the owner of irq with the default handler: disable the line,
// then notify the owner. The owner re-enables the line once it has serviced the event.
func (c *Context) Connect(irq hal.IRQ) {
	intc := c.k.intc
	notify := c.Notifier()
	intc.SetHandler(irq, func() {
		intc.Disable(irq)
		notify()
	})
}

// SetHandler installs a custom handler for irq. It runs in interrupt context.
func (c *Context) SetHandler(irq hal.IRQ, fn func()) {
	c.k.intc.SetHandler(irq, fn)
}

func (c *Context) EnableIRQ(irq hal.IRQ)    { c.k.intc.Enable(irq) }
func (c *Context) DisableIRQ(irq hal.IRQ)   { c.k.intc.Disable(irq) }
func (c *Context) ClearPending(irq hal.IRQ) { c.k.intc.ClearPending(irq) }

// Critical runs fn with every interrupt masked.
func (c *Context) Critical(fn func()) {
	intc := c.k.intc
	intc.Mask()
	defer intc.Unmask()
	fn()
}

// Await waits for the interrupt that signals ev. The notification must be for ev: any other
// interrupt at this point is a fatal protocol violation. The event is acknowledged and the
// line re-enabled before Await returns.
func (c *Context) Await(irq hal.IRQ, ev hal.Event) {
	c.Receive(KindInterrupt)
	if !ev.Fired() {
		c.Panicf("irq %d: unexpected interrupt", irq)
	}
	ev.Clear()
	c.ClearPending(irq)
	c.EnableIRQ(irq)
}
