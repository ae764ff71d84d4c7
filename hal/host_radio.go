//go:build !tinygo

package hal

import (
	"sync"

	"github.com/golang/glog"
)

type radioState uint8

const (
	radioDisabled radioState = iota
	radioRXIdle
	radioRX
	radioTXIdle
)

// HostRadio models the nRF radio on top of an Ether.
//
// Ramp-up, disable and transmission complete instantly: the matching event is set and the
// interrupt raised before the task register write returns. Frames on another channel or
// prefix, or that arrive while the receiver is not armed, are dropped.
type HostRadio struct {
	intc Interrupts
	port EtherPort

	mu     sync.Mutex
	cfg    RadioConfig
	state  radioState
	buf    []byte
	prefix byte
	crcOK  bool
	sent   [][]byte

	ready    hostEvent
	end      hostEvent
	disabled hostEvent
}

// NewHostRadio attaches a radio to ether. A nil ether gives a radio that only hears Inject.
func NewHostRadio(intc Interrupts, ether Ether) *HostRadio {
	r := &HostRadio{intc: intc}
	if ether != nil {
		r.port = ether.Attach(r.deliver)
	}
	return r
}

func (r *HostRadio) Configure(cfg RadioConfig) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

// Config returns the link settings last loaded by the driver.
func (r *HostRadio) Config() RadioConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

func (r *HostRadio) SetPacketBuffer(buf []byte) {
	r.mu.Lock()
	r.buf = buf
	r.mu.Unlock()
}

func (r *HostRadio) SetPrefix(prefix byte) {
	r.mu.Lock()
	r.prefix = prefix
	r.mu.Unlock()
}

func (r *HostRadio) RXEnable() {
	r.mu.Lock()
	r.state = radioRXIdle
	r.mu.Unlock()
	r.fire(&r.ready)
}

func (r *HostRadio) TXEnable() {
	r.mu.Lock()
	r.state = radioTXIdle
	r.mu.Unlock()
	r.fire(&r.ready)
}

func (r *HostRadio) Start() {
	r.mu.Lock()
	switch r.state {
	case radioRXIdle:
		r.state = radioRX
		r.mu.Unlock()
		return
	case radioTXIdle:
	default:
		r.mu.Unlock()
		return
	}

	n := 0
	if len(r.buf) > 0 {
		n = int(r.buf[0]) + 1
		if n > len(r.buf) {
			n = len(r.buf)
		}
	}
	pdu := make([]byte, n)
	copy(pdu, r.buf[:n])
	r.sent = append(r.sent, pdu)
	f := EncodeAir(r.cfg, r.prefix, pdu)
	port := r.port
	r.mu.Unlock()

	if glog.V(2) {
		glog.Infof("radio: tx %d bytes prefix=%d", len(pdu), f.Prefix)
	}
	if port != nil {
		port.Transmit(f)
	}
	r.fire(&r.end)
}

func (r *HostRadio) Disable() {
	r.mu.Lock()
	r.state = radioDisabled
	r.mu.Unlock()
	r.fire(&r.disabled)
}

func (r *HostRadio) Ready() Event    { return &r.ready }
func (r *HostRadio) End() Event      { return &r.end }
func (r *HostRadio) Disabled() Event { return &r.disabled }

func (r *HostRadio) CRCOK() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.crcOK
}

// Listening reports whether the receiver is armed and waiting for a frame.
func (r *HostRadio) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == radioRX
}

// Prefix returns the address prefix last loaded by the driver.
func (r *HostRadio) Prefix() byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefix
}

// Sent returns copies of every PDU transmitted so far.
func (r *HostRadio) Sent() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.sent))
	for i, p := range r.sent {
		out[i] = append([]byte(nil), p...)
	}
	return out
}

// Inject delivers a PDU as if it had been received with the given CRC status.
// It reports false when the receiver was not armed and the frame was lost.
func (r *HostRadio) Inject(pdu []byte, crcOK bool) bool {
	r.mu.Lock()
	if r.state != radioRX {
		r.mu.Unlock()
		return false
	}
	n := copy(r.buf, pdu)
	if limit := int(r.cfg.MaxLength) + 1; r.cfg.MaxLength > 0 && n > limit {
		n = limit
	}
	if n > 0 && int(r.buf[0]) > n-1 {
		r.buf[0] = byte(n - 1)
	}
	r.crcOK = crcOK
	r.state = radioRXIdle
	r.mu.Unlock()

	r.fire(&r.end)
	return true
}

func (r *HostRadio) deliver(f AirFrame) {
	r.mu.Lock()
	cfg, prefix := r.cfg, r.prefix
	r.mu.Unlock()
	// Frames for another address never reach the packet buffer.
	if f.Channel != cfg.Frequency || f.Prefix != prefix {
		return
	}
	pdu, ok := DecodeAir(cfg, f)
	if !r.Inject(pdu, ok) {
		if glog.V(2) {
			glog.Infof("radio: dropped frame, receiver not armed")
		}
	}
}

func (r *HostRadio) fire(ev *hostEvent) {
	ev.set()
	if r.intc != nil {
		r.intc.Raise(IRQRadio)
	}
}

// Close detaches the radio from its medium.
func (r *HostRadio) Close() error {
	if r.port == nil {
		return nil
	}
	return r.port.Close()
}
