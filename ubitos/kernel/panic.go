package kernel

import (
	"fmt"
	"runtime"
)

// PanicInfo describes the fatal abort that halted the system.
type PanicInfo struct {
	TaskID TaskID
	Task   string
	Value  any
	Stack  []byte
}

// SetPanicHandler installs the handler called when the system halts.
//
// The handler is invoked at most once (on the first abort). It must not panic.
func (k *Kernel) SetPanicHandler(fn func(PanicInfo)) {
	k.mu.Lock()
	k.panicHandler = fn
	k.mu.Unlock()
}

// SetKindNamer installs fn to name message kinds in fatal diagnostics.
func (k *Kernel) SetKindNamer(fn func(kind uint16) string) {
	k.mu.Lock()
	k.kindName = fn
	k.mu.Unlock()
}

// Panicf halts the system. It does not return.
func (c *Context) Panicf(format string, args ...any) {
	c.k.fatal(c.t, fmt.Sprintf(format, args...), captureStack())
	runtime.Goexit()
}

// Unhandled halts the system because the task received a message it has no use for.
func (c *Context) Unhandled(msg Message) {
	c.k.mu.Lock()
	name := c.k.kindName
	c.k.mu.Unlock()
	from := c.k.TaskName(msg.From)
	if name != nil {
		c.Panicf("unhandled message %s (kind %d) from %s", name(msg.Kind), msg.Kind, from)
	}
	c.Panicf("unhandled message kind %d from %s", msg.Kind, from)
}

func (k *Kernel) fatal(t *task, v any, stack []byte) {
	k.haltOnce.Do(func() {
		k.mu.Lock()
		k.halted = true
		if k.current == t {
			k.current = nil
		}
		fn := k.panicHandler
		k.idle.Broadcast()
		k.mu.Unlock()

		if k.log != nil {
			k.log.WriteLineString(fmt.Sprintf("panic: %s: %v", t.name, v))
		}
		if fn != nil {
			fn(PanicInfo{TaskID: t.id, Task: t.name, Value: v, Stack: stack})
		}
		close(k.haltCh)
	})
}
