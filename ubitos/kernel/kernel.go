package kernel

import (
	"runtime"
	"sync"
	"sync/atomic"

	"ubit/hal"
)

const (
	maxTasks     = 16
	mailboxSlots = 8
)

// TaskID names a task. IDs are handed out by AddTask in creation order.
type TaskID uint8

// HardwareTask is the sender of interrupt notifications.
const HardwareTask TaskID = 0xff

// Priority is a scheduling hint. Ready high-priority tasks always run before normal ones.
type Priority uint8

const (
	PriorityNormal Priority = iota
	PriorityHigh

	numPriorities
)

// Message kinds reserved by the kernel. Protocol kinds start at KindUser.
const (
	KindAny       uint16 = 0
	KindInterrupt uint16 = 1
	KindReply     uint16 = 2

	KindUser uint16 = 16
)

// Message is the fixed-size envelope carried between tasks.
//
// Ptr1 and Ptr2 alias the sender's memory. The receiver may only touch them while the sender
// is blocked waiting for its reply.
type Message struct {
	Kind uint16
	From TaskID
	Int1 int
	Int2 int
	Ptr1 []byte
	Ptr2 []byte
}

// Task is a cooperative unit of execution. Run is called once and normally never returns.
type Task interface {
	Run(*Context)
}

type taskState uint8

const (
	stateReady taskState = iota
	stateRunning
	stateRecv
	stateSend
	stateDone
)

type task struct {
	id   TaskID
	name string
	body Task
	ctx  Context

	// Guarded by Kernel.mu.
	prio   Priority
	state  taskState
	filter uint16
	sendTo *task
	mbox   mailbox

	irq  atomic.Bool
	wake chan struct{}
}

// Kernel runs tasks one at a time. A task keeps the CPU until it blocks.
type Kernel struct {
	intc hal.Interrupts
	log  hal.Logger

	tasks [maxTasks]atomic.Pointer[task]

	mu      sync.Mutex
	idle    *sync.Cond
	ntasks  int
	ready   [numPriorities][]*task
	current *task
	booted  bool
	halted  bool
	stopped bool

	kick chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup

	haltOnce     sync.Once
	haltCh       chan struct{}
	stopOnce     sync.Once
	panicHandler func(PanicInfo)
	kindName     func(uint16) string
}

// New creates a kernel on top of an interrupt controller. log receives kernel diagnostics.
func New(intc hal.Interrupts, log hal.Logger) *Kernel {
	k := &Kernel{
		intc:   intc,
		log:    log,
		kick:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		haltCh: make(chan struct{}),
	}
	k.idle = sync.NewCond(&k.mu)
	return k
}

// AddTask registers a task and returns its ID. The task first runs once the kernel has booted.
// Creating more tasks than the kernel has slots for is fatal.
func (k *Kernel) AddTask(name string, t Task) TaskID {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.ntasks >= maxTasks {
		panic("kernel: too many tasks")
	}
	st := &task{
		id:    TaskID(k.ntasks),
		name:  name,
		body:  t,
		state: stateReady,
		wake:  make(chan struct{}, 1),
	}
	st.ctx = Context{k: k, t: st}
	k.tasks[st.id].Store(st)
	k.ntasks++

	k.ready[st.prio] = append(k.ready[st.prio], st)
	if k.booted {
		k.spawn(st)
		if k.current == nil {
			k.schedule()
		}
	}
	return st.id
}

// Boot starts running tasks. It returns immediately.
func (k *Kernel) Boot() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.booted {
		return
	}
	k.booted = true

	k.wg.Add(1)
	go k.dispatch()
	for i := 0; i < k.ntasks; i++ {
		k.spawn(k.tasks[i].Load())
	}
	k.schedule()
}

// WaitIdle blocks until no task can make progress: nothing runs, nothing is ready and no task
// is blocked on an interrupt notification that has already been posted.
func (k *Kernel) WaitIdle() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for !k.idleLocked() {
		k.idle.Wait()
	}
}

// Shutdown stops every task goroutine and waits for them to exit.
func (k *Kernel) Shutdown() {
	k.stopOnce.Do(func() {
		k.mu.Lock()
		k.stopped = true
		k.idle.Broadcast()
		k.mu.Unlock()
		close(k.stop)
	})
	k.wg.Wait()
}

// Halted is closed once a fatal abort has stopped the system.
func (k *Kernel) Halted() <-chan struct{} { return k.haltCh }

// TaskName returns the name a task was created with.
func (k *Kernel) TaskName(id TaskID) string {
	if t := k.task(id); t != nil {
		return t.name
	}
	if id == HardwareTask {
		return "hardware"
	}
	return "?"
}

func (k *Kernel) task(id TaskID) *task {
	if int(id) >= maxTasks {
		return nil
	}
	return k.tasks[id].Load()
}

func (k *Kernel) spawn(t *task) {
	k.wg.Add(1)
	go k.runTask(t)
}

func (k *Kernel) runTask(t *task) {
	defer k.wg.Done()
	defer k.exitTask(t)
	if !k.waitCPU(t) {
		return
	}
	t.body.Run(&t.ctx)
}

func (k *Kernel) exitTask(t *task) {
	if r := recover(); r != nil {
		k.fatal(t, r, captureStack())
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	t.state = stateDone
	if k.current == t {
		k.current = nil
		k.schedule()
	}
}

func (k *Kernel) waitCPU(t *task) bool {
	select {
	case <-t.wake:
		return true
	case <-k.stop:
		return false
	}
}

// block gives up the CPU and waits to be scheduled again. k.mu is held on entry and on return,
// also when the task exits because the kernel shut down.
func (k *Kernel) block(t *task) {
	if k.current == t {
		k.current = nil
	}
	k.schedule()
	k.mu.Unlock()
	ok := k.waitCPU(t)
	k.mu.Lock()
	if !ok {
		runtime.Goexit()
	}
}

// makeReady queues t behind the other ready tasks of its priority.
func (k *Kernel) makeReady(t *task) {
	t.state = stateReady
	t.sendTo = nil
	k.ready[t.prio] = append(k.ready[t.prio], t)
	if k.current == nil {
		k.schedule()
	}
}

// schedule hands the CPU to the next ready task if nothing is running.
func (k *Kernel) schedule() {
	if k.current != nil || !k.booted || k.halted || k.stopped {
		if k.current == nil {
			k.idle.Broadcast()
		}
		return
	}
	for p := numPriorities - 1; ; p-- {
		if q := k.ready[p]; len(q) > 0 {
			t := q[0]
			q[0] = nil
			k.ready[p] = q[1:]
			t.state = stateRunning
			k.current = t
			t.wake <- struct{}{}
			return
		}
		if p == 0 {
			break
		}
	}
	k.idle.Broadcast()
}

func (k *Kernel) idleLocked() bool {
	if !k.booted || k.halted || k.stopped {
		return true
	}
	if k.current != nil {
		return false
	}
	for p := range k.ready {
		if len(k.ready[p]) > 0 {
			return false
		}
	}
	for i := 0; i < k.ntasks; i++ {
		t := k.tasks[i].Load()
		if t.state == stateRecv && acceptsInterrupt(t.filter) && t.irq.Load() {
			return false
		}
	}
	return true
}
