package kernel

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ubit/hal"
)

const testTimeout = 1 * time.Second

type taskFunc func(*Context)

func (f taskFunc) Run(c *Context) { f(c) }

func newTestKernel(t *testing.T) (*Kernel, *hal.HostInterrupts) {
	t.Helper()
	intc := hal.NewHostInterrupts()
	k := New(intc, nil)
	t.Cleanup(k.Shutdown)
	return k, intc
}

func waitIdle(t *testing.T, k *Kernel) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		k.WaitIdle()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for kernel to go idle")
	}
}

func recvWithTimeout[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for message")
		var zero T
		return zero
	}
}

// recorder collects values appended by tasks. Only one task runs at a time, but the test
// goroutine reads concurrently.
type recorder[T any] struct {
	mu   sync.Mutex
	vals []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.vals = append(r.vals, v)
	r.mu.Unlock()
}

func (r *recorder[T]) get() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.vals...)
}

func TestSendReceiveFIFO(t *testing.T) {
	k, _ := newTestKernel(t)
	var got recorder[Message]

	rx := k.AddTask("rx", taskFunc(func(c *Context) {
		for {
			got.add(c.Receive(KindAny))
		}
	}))
	tx := k.AddTask("tx", taskFunc(func(c *Context) {
		for i := 0; i < 3; i++ {
			c.Send(rx, Message{Kind: KindUser, Int1: i})
		}
	}))
	k.Boot()
	waitIdle(t, k)

	msgs := got.get()
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		require.Equal(t, i, m.Int1)
		require.Equal(t, tx, m.From)
		require.Equal(t, KindUser, m.Kind)
	}
}

func TestReceiveFilterLeavesOtherKindsQueued(t *testing.T) {
	k, _ := newTestKernel(t)
	var got recorder[uint16]

	rx := k.AddTask("rx", taskFunc(func(c *Context) {
		got.add(c.Receive(KindUser + 1).Kind)
		got.add(c.Receive(KindAny).Kind)
		got.add(c.Receive(KindAny).Kind)
	}))
	k.AddTask("tx", taskFunc(func(c *Context) {
		c.Send(rx, Message{Kind: KindUser})
		c.Send(rx, Message{Kind: KindUser + 2})
		c.Send(rx, Message{Kind: KindUser + 1})
	}))
	k.Boot()
	waitIdle(t, k)

	require.Equal(t, []uint16{KindUser + 1, KindUser, KindUser + 2}, got.get())
}

func TestCallReply(t *testing.T) {
	k, _ := newTestKernel(t)
	replies := make(chan Message, 1)

	srv := k.AddTask("srv", taskFunc(func(c *Context) {
		for {
			m := c.Receive(KindAny)
			c.Reply(m.From, Message{Int1: m.Int1 * 2})
		}
	}))
	k.AddTask("cli", taskFunc(func(c *Context) {
		replies <- c.Call(srv, Message{Kind: KindUser, Int1: 21})
	}))
	k.Boot()

	r := recvWithTimeout(t, replies)
	require.Equal(t, KindReply, r.Kind)
	require.Equal(t, srv, r.From)
	require.Equal(t, 42, r.Int1)
}

func TestInterruptBeforeMailbox(t *testing.T) {
	k, _ := newTestKernel(t)
	var got recorder[uint16]

	rx := k.AddTask("rx", taskFunc(func(c *Context) {
		c.Receive(KindUser)
		for i := 0; i < 3; i++ {
			got.add(c.Receive(KindAny).Kind)
		}
	}))
	k.AddTask("tx", taskFunc(func(c *Context) {
		c.Send(rx, Message{Kind: KindUser + 1})
		c.Send(rx, Message{Kind: KindUser + 2})
		k.Interrupt(rx)
		c.Send(rx, Message{Kind: KindUser})
	}))
	k.Boot()
	waitIdle(t, k)

	require.Equal(t, []uint16{KindInterrupt, KindUser + 1, KindUser + 2}, got.get())
}

func TestInterruptNotificationsCoalesce(t *testing.T) {
	k, _ := newTestKernel(t)
	var got recorder[Message]

	id := k.AddTask("rx", taskFunc(func(c *Context) {
		c.Receive(KindUser)
		for {
			got.add(c.Receive(KindInterrupt))
		}
	}))
	k.Boot()
	waitIdle(t, k)

	k.Interrupt(id)
	k.Interrupt(id)
	k.Interrupt(id)
	k.AddTask("go", taskFunc(func(c *Context) {
		c.Send(id, Message{Kind: KindUser})
	}))
	waitIdle(t, k)

	msgs := got.get()
	require.Len(t, msgs, 1)
	require.Equal(t, HardwareTask, msgs[0].From)

	k.Interrupt(id)
	waitIdle(t, k)
	require.Len(t, got.get(), 2)
}

func TestFullMailboxBlocksSender(t *testing.T) {
	k, _ := newTestKernel(t)
	var sent recorder[int]
	var got recorder[int]

	rx := k.AddTask("rx", taskFunc(func(c *Context) {
		c.Receive(KindInterrupt)
		for {
			got.add(c.Receive(KindUser).Int1)
		}
	}))
	k.AddTask("tx", taskFunc(func(c *Context) {
		for i := 0; i < mailboxSlots+2; i++ {
			c.Send(rx, Message{Kind: KindUser, Int1: i})
			sent.add(i)
		}
	}))
	k.Boot()
	waitIdle(t, k)

	require.Len(t, sent.get(), mailboxSlots)
	require.Empty(t, got.get())

	k.Interrupt(rx)
	waitIdle(t, k)

	want := make([]int, mailboxSlots+2)
	for i := range want {
		want[i] = i
	}
	require.Equal(t, want, sent.get())
	require.Equal(t, want, got.get())
}

func TestHighPriorityRunsFirst(t *testing.T) {
	k, _ := newTestKernel(t)
	var order recorder[string]

	lo := k.AddTask("lo", taskFunc(func(c *Context) {
		for {
			c.Receive(KindUser)
			order.add("lo")
		}
	}))
	hi := k.AddTask("hi", taskFunc(func(c *Context) {
		c.SetPriority(PriorityHigh)
		for {
			c.Receive(KindUser)
			order.add("hi")
		}
	}))
	k.AddTask("tx", taskFunc(func(c *Context) {
		c.Send(lo, Message{Kind: KindUser})
		c.Send(hi, Message{Kind: KindUser})
		c.Yield()
		order.add("tx")
	}))
	k.Boot()
	waitIdle(t, k)

	require.Equal(t, []string{"hi", "lo", "tx"}, order.get())
}

func TestPanicfHalts(t *testing.T) {
	k, _ := newTestKernel(t)
	infos := make(chan PanicInfo, 2)
	k.SetPanicHandler(func(info PanicInfo) { infos <- info })

	var after recorder[string]
	id := k.AddTask("bad", taskFunc(func(c *Context) {
		c.Panicf("too many %s", "widgets")
		after.add("unreachable")
	}))
	k.AddTask("next", taskFunc(func(c *Context) {
		after.add("next")
	}))
	k.Boot()

	info := recvWithTimeout(t, infos)
	require.Equal(t, id, info.TaskID)
	require.Equal(t, "bad", info.Task)
	require.Equal(t, "too many widgets", info.Value)

	<-k.Halted()
	waitIdle(t, k)
	require.Empty(t, after.get())
	require.Empty(t, infos)
}

func TestGoPanicInTaskHalts(t *testing.T) {
	k, _ := newTestKernel(t)
	infos := make(chan PanicInfo, 1)
	k.SetPanicHandler(func(info PanicInfo) { infos <- info })

	k.AddTask("oops", taskFunc(func(c *Context) {
		var m map[string]int
		m["x"] = 1
	}))
	k.Boot()

	info := recvWithTimeout(t, infos)
	require.Equal(t, "oops", info.Task)
	require.NotEmpty(t, info.Stack)
	recvWithTimeout(t, k.Halted())
}

func TestUnhandledNamesSender(t *testing.T) {
	k, _ := newTestKernel(t)
	infos := make(chan PanicInfo, 1)
	k.SetPanicHandler(func(info PanicInfo) { infos <- info })

	srv := k.AddTask("srv", taskFunc(func(c *Context) {
		c.Unhandled(c.Receive(KindAny))
	}))
	k.AddTask("client", taskFunc(func(c *Context) {
		c.Send(srv, Message{Kind: 99})
	}))
	k.Boot()

	info := recvWithTimeout(t, infos)
	msg, ok := info.Value.(string)
	require.True(t, ok)
	require.True(t, strings.Contains(msg, "99"), msg)
	require.True(t, strings.Contains(msg, "client"), msg)
}

func TestUnhandledUsesKindNames(t *testing.T) {
	k, _ := newTestKernel(t)
	infos := make(chan PanicInfo, 1)
	k.SetPanicHandler(func(info PanicInfo) { infos <- info })
	k.SetKindNamer(func(kind uint16) string {
		if kind == 42 {
			return "answer"
		}
		return "?"
	})

	srv := k.AddTask("srv", taskFunc(func(c *Context) {
		c.Unhandled(c.Receive(KindAny))
	}))
	k.AddTask("client", taskFunc(func(c *Context) {
		c.Send(srv, Message{Kind: 42})
	}))
	k.Boot()

	info := recvWithTimeout(t, infos)
	require.Equal(t, "unhandled message answer (kind 42) from client", info.Value)
}

type latch struct{ v atomic.Bool }

func (l *latch) Fired() bool { return l.v.Load() }
func (l *latch) Clear()      { l.v.Store(false) }

func TestConnectAwait(t *testing.T) {
	k, intc := newTestKernel(t)
	const irq hal.IRQ = 5
	ev := &latch{}
	done := make(chan struct{}, 1)

	k.AddTask("drv", taskFunc(func(c *Context) {
		c.Connect(irq)
		c.EnableIRQ(irq)
		for {
			c.Await(irq, ev)
			done <- struct{}{}
		}
	}))
	k.Boot()
	waitIdle(t, k)
	require.True(t, intc.Enabled(irq))

	ev.v.Store(true)
	intc.Raise(irq)
	recvWithTimeout(t, done)
	waitIdle(t, k)

	require.False(t, ev.Fired())
	require.True(t, intc.Enabled(irq))
	require.False(t, intc.Pending(irq))
}

func TestAwaitWrongEventIsFatal(t *testing.T) {
	k, intc := newTestKernel(t)
	const irq hal.IRQ = 6
	infos := make(chan PanicInfo, 1)
	k.SetPanicHandler(func(info PanicInfo) { infos <- info })

	k.AddTask("drv", taskFunc(func(c *Context) {
		c.Connect(irq)
		c.EnableIRQ(irq)
		c.Await(irq, &latch{})
	}))
	k.Boot()
	waitIdle(t, k)

	intc.Raise(irq)
	info := recvWithTimeout(t, infos)
	require.Equal(t, "drv", info.Task)
	require.Contains(t, info.Value, "unexpected interrupt")
}

func TestCriticalMasksHandlers(t *testing.T) {
	k, intc := newTestKernel(t)
	const irq hal.IRQ = 7
	var log recorder[string]
	ran := make(chan struct{})

	intc.SetHandler(irq, func() { log.add("irq") })
	intc.Enable(irq)

	k.AddTask("crit", taskFunc(func(c *Context) {
		c.Critical(func() {
			log.add("enter")
			go intc.Raise(irq)
			time.Sleep(20 * time.Millisecond)
			log.add("leave")
		})
		close(ran)
	}))
	k.Boot()
	recvWithTimeout(t, ran)

	require.Eventually(t, func() bool { return len(log.get()) == 3 }, testTimeout, time.Millisecond)
	require.Equal(t, []string{"enter", "leave", "irq"}, log.get())
}
