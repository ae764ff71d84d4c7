package kernel

// Context provides task-local access to kernel operations. It is only valid on the goroutine
// of the task it was handed to.
type Context struct {
	k *Kernel
	t *task
}

// TaskID returns the current task ID.
func (c *Context) TaskID() TaskID { return c.t.id }

// Name returns the current task name.
func (c *Context) Name() string { return c.t.name }

// Kernel returns the kernel the task runs on.
func (c *Context) Kernel() *Kernel { return c.k }

// Send delivers msg to the mailbox of to and returns without yielding. If that mailbox is full
// the caller blocks until a slot frees.
func (c *Context) Send(to TaskID, msg Message) {
	k := c.k
	dst := k.task(to)
	if dst == nil {
		c.Panicf("send to unknown task %d", to)
	}
	msg.From = c.t.id

	k.mu.Lock()
	defer k.mu.Unlock()
	for dst.mbox.full() {
		c.t.state = stateSend
		c.t.sendTo = dst
		k.block(c.t)
	}
	dst.mbox.push(msg)
	if dst.state == stateRecv && matches(dst.filter, msg.Kind) {
		k.makeReady(dst)
	}
}

// Receive blocks until a message accepted by kind arrives. KindAny accepts everything.
//
// A pending interrupt notification is delivered ahead of queued mailbox messages; otherwise
// messages come out in arrival order.
func (c *Context) Receive(kind uint16) Message {
	k, t := c.k, c.t
	k.mu.Lock()
	defer k.mu.Unlock()
	for {
		if acceptsInterrupt(kind) && t.irq.CompareAndSwap(true, false) {
			return Message{Kind: KindInterrupt, From: HardwareTask}
		}
		if msg, ok := t.mbox.take(kind); ok {
			k.releaseSenders(t)
			return msg
		}
		t.state = stateRecv
		t.filter = kind
		k.block(t)
	}
}

// Call sends msg to a server and waits for its reply.
func (c *Context) Call(to TaskID, msg Message) Message {
	c.Send(to, msg)
	return c.Receive(KindReply)
}

// Reply answers a Call from the task to.
func (c *Context) Reply(to TaskID, msg Message) {
	msg.Kind = KindReply
	c.Send(to, msg)
}

// Yield lets every other ready task of the same or higher priority run first.
func (c *Context) Yield() {
	k := c.k
	k.mu.Lock()
	defer k.mu.Unlock()
	k.makeReady(c.t)
	k.block(c.t)
}

// SetPriority changes the scheduling hint of the current task.
func (c *Context) SetPriority(p Priority) {
	if p >= numPriorities {
		p = PriorityHigh
	}
	c.k.mu.Lock()
	c.t.prio = p
	c.k.mu.Unlock()
}

// releaseSenders wakes tasks blocked sending to t now that a slot is free.
func (k *Kernel) releaseSenders(t *task) {
	for i := 0; i < k.ntasks; i++ {
		s := k.tasks[i].Load()
		if s.state == stateSend && s.sendTo == t {
			k.makeReady(s)
		}
	}
}
