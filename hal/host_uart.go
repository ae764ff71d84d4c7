//go:build !tinygo

package hal

import (
	"io"
	"sync"

	"github.com/golang/glog"
)

// HostUART models the transmit half of the UART.
//
// In automatic mode each byte is written to the sink and TXDRDY fires before Transmit returns.
// In manual mode bytes are held on the wire until CompleteTX is called.
type HostUART struct {
	intc   Interrupts
	manual bool

	mu      sync.Mutex
	w       io.Writer
	baud    int
	started bool
	busy    bool
	out     []byte

	txdrdy hostEvent
}

// NewHostUART returns an automatic UART writing to w.
func NewHostUART(intc Interrupts, w io.Writer) *HostUART {
	return &HostUART{intc: intc, w: w}
}

// NewManualUART returns a UART whose transmissions complete only through CompleteTX.
func NewManualUART(intc Interrupts) *HostUART {
	return &HostUART{intc: intc, manual: true}
}

func (u *HostUART) Configure(baud int) {
	u.mu.Lock()
	u.baud = baud
	u.mu.Unlock()
}

func (u *HostUART) StartTX() {
	u.mu.Lock()
	u.started = true
	u.mu.Unlock()
}

func (u *HostUART) Transmit(b byte) {
	u.mu.Lock()
	if !u.started {
		u.mu.Unlock()
		glog.Warningf("uart: byte %#02x written before STARTTX", b)
		return
	}
	if u.busy {
		glog.Warningf("uart: byte %#02x overran the transmitter", b)
	}
	u.busy = true
	u.out = append(u.out, b)
	w := u.w
	manual := u.manual
	u.mu.Unlock()

	if manual {
		return
	}
	if w != nil {
		if _, err := w.Write([]byte{b}); err != nil {
			glog.Warningf("uart: sink: %v", err)
		}
	}
	u.CompleteTX()
}

func (u *HostUART) TXDReady() Event { return &u.txdrdy }

// CompleteTX finishes the byte on the wire: TXDRDY fires and the interrupt is raised.
// It reports false if no byte was in flight.
func (u *HostUART) CompleteTX() bool {
	u.mu.Lock()
	if !u.busy {
		u.mu.Unlock()
		return false
	}
	u.busy = false
	u.mu.Unlock()

	u.txdrdy.set()
	if u.intc != nil {
		u.intc.Raise(IRQUART)
	}
	return true
}

// Busy reports whether a byte is in flight.
func (u *HostUART) Busy() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.busy
}

// Written returns every byte transmitted so far.
func (u *HostUART) Written() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.out...)
}
