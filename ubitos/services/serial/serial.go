package serial

import (
	"ubit/hal"
	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
)

// BufSize is the capacity of the transmit buffer.
const BufSize = 128

// DefaultBaud matches the micro:bit USB bridge.
const DefaultBaud = 115200

// Service is the serial transmit driver. Bytes are queued in a circular buffer and fed to
// the UART one at a time as each transmission completes.
type Service struct {
	hw   hal.UART
	baud int

	buf  [BufSize]byte
	in   int
	out  int
	n    int
	idle bool
}

// New creates a serial driver for hw.
func New(hw hal.UART, baud int) *Service {
	if baud <= 0 {
		baud = DefaultBaud
	}
	return &Service{hw: hw, baud: baud}
}

func (s *Service) Run(ctx *kernel.Context) {
	s.hw.Configure(s.baud)
	s.hw.StartTX()
	s.idle = true
	ctx.Connect(hal.IRQUART)
	ctx.EnableIRQ(hal.IRQUART)

	for {
		msg := ctx.Receive(kernel.KindAny)
		switch proto.Kind(msg.Kind) {
		case proto.MsgInterrupt:
			s.txDone(ctx)
		case proto.MsgPutc:
			s.put(ctx, byte(msg.Int1))
			ctx.Reply(msg.From, kernel.Message{})
		case proto.MsgSerialWrite:
			n := msg.Int2
			if n < 0 || n > len(msg.Ptr1) {
				n = len(msg.Ptr1)
			}
			for _, b := range msg.Ptr1[:n] {
				s.put(ctx, b)
			}
			ctx.Reply(msg.From, kernel.Message{Int1: n})
		default:
			ctx.Unhandled(msg)
		}
		s.start()
	}
}

// put queues b, waiting for the transmitter to drain a byte if the buffer is full.
func (s *Service) put(ctx *kernel.Context, b byte) {
	for s.n == BufSize {
		ctx.Receive(kernel.KindInterrupt)
		s.txDone(ctx)
	}
	s.buf[s.in] = b
	s.in = (s.in + 1) % BufSize
	s.n++
	s.start()
}

// txDone services a UART interrupt. The line is re-armed even when TXDRDY is not set: the
// UART keeps raising the pending bit while the line is disabled.
func (s *Service) txDone(ctx *kernel.Context) {
	if ev := s.hw.TXDReady(); ev.Fired() {
		s.idle = true
		ev.Clear()
	}
	ctx.ClearPending(hal.IRQUART)
	ctx.EnableIRQ(hal.IRQUART)
	s.start()
}

// start hands the next byte to the UART if it is idle.
func (s *Service) start() {
	if !s.idle || s.n == 0 {
		return
	}
	b := s.buf[s.out]
	s.out = (s.out + 1) % BufSize
	s.n--
	s.idle = false
	s.hw.Transmit(b)
}
