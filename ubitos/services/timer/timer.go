package timer

import (
	"sync/atomic"

	"ubit/hal"
	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
)

// MaxTimers is the size of the timer table.
const MaxTimers = 8

// DefaultTick is the interval between timer interrupts in milliseconds.
const DefaultTick = 1

type slot struct {
	inUse  bool
	client kernel.TaskID
	period uint32 // 0 for one-shot
	next   uint32
}

// Service multiplexes one hardware timer into a table of millisecond timers and keeps the
// system clock.
type Service struct {
	hw   hal.Timer
	intc hal.Interrupts
	tick uint32

	millis atomic.Uint32

	slots [MaxTimers]slot
}

// New creates a timer service ticking every tickMillis milliseconds.
func New(hw hal.Timer, intc hal.Interrupts, tickMillis int) *Service {
	if tickMillis <= 0 {
		tickMillis = DefaultTick
	}
	return &Service{hw: hw, intc: intc, tick: uint32(tickMillis)}
}

// Tick returns the clock resolution in milliseconds.
func (s *Service) Tick() int { return int(s.tick) }

// Now returns the milliseconds since the timer started.
func (s *Service) Now() uint32 { return s.millis.Load() }

func (s *Service) Run(ctx *kernel.Context) {
	s.hw.Stop()
	ctx.SetHandler(hal.IRQTimer1, s.handler(ctx.Notifier()))
	s.hw.Start(1000 * s.tick)
	ctx.EnableIRQ(hal.IRQTimer1)

	for {
		msg := ctx.Receive(kernel.KindAny)
		switch proto.Kind(msg.Kind) {
		case proto.MsgInterrupt:
			s.check(ctx)
		case proto.MsgRegister:
			s.create(ctx, msg.From, msg.Int1, msg.Int2 != 0)
		default:
			ctx.Unhandled(msg)
		}
	}
}

// handler runs in interrupt context. The clock advances here so that Micros stays correct
// while the task is busy.
func (s *Service) handler(notify func()) func() {
	return func() {
		ev := s.hw.Compare()
		if !ev.Fired() {
			return
		}
		s.millis.Add(s.tick)
		ev.Clear()
		notify()
	}
}

// check sends a ping for every timer that is due.
func (s *Service) check(ctx *kernel.Context) {
	now := s.millis.Load()
	for i := range s.slots {
		sl := &s.slots[i]
		if !sl.inUse || int32(now-sl.next) < 0 {
			continue
		}
		ctx.Send(sl.client, kernel.Message{Kind: uint16(proto.MsgPing), Int1: int(sl.next)})
		if sl.period > 0 {
			sl.next += sl.period
		} else {
			*sl = slot{}
		}
	}
}

func (s *Service) create(ctx *kernel.Context, client kernel.TaskID, delay int, repeat bool) {
	i := 0
	for i < MaxTimers && s.slots[i].inUse {
		i++
	}
	if i == MaxTimers {
		ctx.Panicf("too many timers")
	}
	if delay < 0 {
		delay = 0
	}

	now := s.millis.Load()
	sl := &s.slots[i]
	sl.inUse = true
	sl.client = client
	if repeat {
		sl.next = now + uint32(delay)
		sl.period = uint32(delay)
	} else {
		// One tick of padding so the timer cannot fire early.
		sl.next = now + uint32(delay) + s.tick
		sl.period = 0
	}
}

// active counts the slots in use. Task context only.
func (s *Service) active() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].inUse {
			n++
		}
	}
	return n
}
