package radio

import (
	"sync/atomic"

	"ubit/hal"
	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
)

// Config is the link setup shared with the stock micro:bit runtime: 2407 MHz, base address
// "ubit", 16-bit CRC and whitening.
var Config = hal.RadioConfig{
	Frequency:   7,
	BaseAddress: 0x75626974,
	BaseLength:  4,
	MaxLength:   proto.MaxLength,
	CRCInit:     0xffff,
	CRCPoly:     0x11021,
	WhiteningIV: 0x18,
}

type mode uint8

const (
	modeDisabled mode = iota
	modeReady
	modeListening
)

func (m mode) String() string {
	switch m {
	case modeDisabled:
		return "disabled"
	case modeReady:
		return "ready"
	case modeListening:
		return "listening"
	default:
		return "unknown"
	}
}

// Service is the radio driver task. It serves one listener and any number of senders.
type Service struct {
	hw    hal.Radio
	group atomic.Uint32

	packet [proto.MaxFrame]byte

	mode     mode
	listener kernel.TaskID
	buffer   []byte
	rgroup   uint8
}

// New creates a radio driver for hw.
func New(hw hal.Radio) *Service {
	return &Service{hw: hw}
}

// SetGroup selects the group used for outgoing frames and for the next armed receive.
// It may be called from any task at any time.
func (s *Service) SetGroup(group uint8) { s.group.Store(uint32(group)) }

// Group returns the configured group.
func (s *Service) Group() uint8 { return uint8(s.group.Load()) }

func (s *Service) Run(ctx *kernel.Context) {
	s.hw.Configure(Config)
	s.hw.SetPacketBuffer(s.packet[:])
	ctx.Connect(hal.IRQRadio)
	ctx.EnableIRQ(hal.IRQRadio)

	for {
		msg := ctx.Receive(kernel.KindAny)
		switch proto.Kind(msg.Kind) {
		case proto.MsgInterrupt:
			s.received(ctx)
		case proto.MsgRadioReceive:
			s.receive(ctx, msg)
		case proto.MsgRadioSend:
			s.send(ctx, msg)
		default:
			ctx.Unhandled(msg)
		}
	}
}

// received handles the end of a reception.
func (s *Service) received(ctx *kernel.Context) {
	end := s.hw.End()
	if !end.Fired() || s.mode != modeListening {
		ctx.Panicf("unexpected radio interrupt in mode %s", s.mode)
	}
	end.Clear()
	ctx.ClearPending(hal.IRQRadio)
	ctx.EnableIRQ(hal.IRQRadio)

	f, err := proto.DecodeFrame(s.packet[:])
	if !s.hw.CRCOK() || err != nil || f.Group != s.rgroup {
		// Noise or another group: listen again.
		s.hw.Start()
		return
	}

	n := copy(s.buffer, f.Payload)
	s.buffer = nil
	s.mode = modeReady
	ctx.Reply(s.listener, kernel.Message{Int1: n})
}

func (s *Service) receive(ctx *kernel.Context, msg kernel.Message) {
	if s.mode == modeListening {
		ctx.Panicf("radio supports only one listener at a time")
	}
	s.listener = msg.From
	s.buffer = msg.Ptr1

	if s.mode == modeDisabled {
		s.hw.RXEnable()
		ctx.Await(hal.IRQRadio, s.hw.Ready())
	}

	s.rgroup = s.Group()
	s.hw.SetPrefix(s.rgroup)
	s.hw.Start()
	s.mode = modeListening
}

func (s *Service) send(ctx *kernel.Context, msg kernel.Message) {
	n := msg.Int2
	if n < 0 || n > proto.MaxPayload || n > len(msg.Ptr1) {
		ctx.Panicf("radio send of %d bytes", n)
	}

	if s.mode != modeDisabled {
		// A receiving radio cannot transmit.
		s.hw.Disable()
		ctx.Await(hal.IRQRadio, s.hw.Disabled())
	}

	group := s.Group()
	if _, err := proto.EncodeFrame(s.packet[:], group, msg.Ptr1[:n]); err != nil {
		ctx.Panicf("radio send: %v", err)
	}

	s.hw.TXEnable()
	ctx.Await(hal.IRQRadio, s.hw.Ready())
	s.hw.SetPrefix(group)
	s.hw.Start()
	ctx.Await(hal.IRQRadio, s.hw.End())

	// Left enabled, the transmitter keeps the channel busy.
	s.hw.Disable()
	ctx.Await(hal.IRQRadio, s.hw.Disabled())

	if s.mode == modeListening {
		s.hw.RXEnable()
		ctx.Await(hal.IRQRadio, s.hw.Ready())
		s.hw.SetPrefix(s.rgroup)
		s.hw.Start()
	} else {
		s.mode = modeDisabled
	}

	ctx.Reply(msg.From, kernel.Message{})
}
