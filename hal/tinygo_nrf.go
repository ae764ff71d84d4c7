//go:build tinygo && nrf52833

package hal

import (
	"runtime/volatile"
)

// DefaultTick is the timer resolution the board's 16-bit counter supports at 1 MHz.
const DefaultTick = 1

type tinyGoHAL struct {
	logger *uartLogger
	intc   *nvic
	radio  *nrfRadio
	timer  *nrfTimer
	uart   *nrfUART
	matrix *pinMatrix
}

// New returns the micro:bit V2 (nRF52833) HAL. Build with -serial=none: the UART belongs to
// the serial driver task.
func New() HAL {
	startHFCLK()
	h := &tinyGoHAL{
		intc:   &theNVIC,
		radio:  &nrfRadio{},
		timer:  &nrfTimer{},
		uart:   newNRFUART(),
		matrix: newPinMatrix(),
	}
	h.logger = &uartLogger{intc: h.intc}
	return h
}

func (h *tinyGoHAL) Logger() Logger         { return h.logger }
func (h *tinyGoHAL) Interrupts() Interrupts { return h.intc }
func (h *tinyGoHAL) Radio() Radio           { return h.radio }
func (h *tinyGoHAL) Timer() Timer           { return h.timer }
func (h *tinyGoHAL) UART() UART             { return h.uart }
func (h *tinyGoHAL) Matrix() Matrix         { return h.matrix }

// regEvent is an EVENTS_* register.
type regEvent struct {
	r *volatile.Register32
}

func (e regEvent) Fired() bool { return e.r.Get() != 0 }
func (e regEvent) Clear()      { e.r.Set(0) }
