//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
)

// HostConfig selects the outside world a host board is connected to.
type HostConfig struct {
	// MQTT is a broker URL shared with other boards; empty leaves the radio alone on the air.
	MQTT string
	// UARTPort names a real serial device that receives the board's serial output.
	UARTPort string
	UARTBaud int
	// TTY sends serial output to the controlling terminal instead of stdout.
	TTY bool
}

type hostHAL struct {
	logger *hostLogger
	intc   *HostInterrupts
	radio  *HostRadio
	timer  *HostTimer
	uart   *HostUART
	matrix *HostMatrix

	closers []io.Closer
}

// New returns a host HAL implementation.
func New(cfg HostConfig) (HAL, error) {
	h := &hostHAL{
		logger: &hostLogger{},
		intc:   NewHostInterrupts(),
		matrix: NewHostMatrix(),
	}
	h.timer = NewHostTimer(h.intc)

	var ether Ether
	if cfg.MQTT != "" {
		m, err := NewMQTTEther(cfg.MQTT)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, m)
		ether = m
	}
	h.radio = NewHostRadio(h.intc, ether)
	h.closers = append(h.closers, h.radio)

	var sink io.Writer = os.Stdout
	switch {
	case cfg.UARTPort != "":
		baud := cfg.UARTBaud
		if baud <= 0 {
			baud = 115200
		}
		p, err := OpenSerialPort(cfg.UARTPort, baud)
		if err != nil {
			h.Close()
			return nil, err
		}
		h.closers = append(h.closers, p)
		sink = p
	case cfg.TTY:
		t, err := OpenTTY()
		if err != nil {
			h.Close()
			return nil, err
		}
		h.closers = append(h.closers, t)
		sink = t
	}
	h.uart = NewHostUART(h.intc, sink)
	return h, nil
}

func (h *hostHAL) Logger() Logger         { return h.logger }
func (h *hostHAL) Interrupts() Interrupts { return h.intc }
func (h *hostHAL) Radio() Radio           { return h.radio }
func (h *hostHAL) Timer() Timer           { return h.timer }
func (h *hostHAL) UART() UART             { return h.uart }
func (h *hostHAL) Matrix() Matrix         { return h.matrix }

// start runs the simulated clock until ctx is done.
func (h *hostHAL) start(ctx context.Context) {
	go h.timer.Run(ctx, time.Millisecond)
}

// Close releases the radio medium and serial sinks, last opened first.
func (h *hostHAL) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

// hostLogger sends kernel diagnostics to glog.
type hostLogger struct{}

func (hostLogger) WriteLineString(s string) {
	glog.InfoDepth(1, strings.TrimRight(s, "\r\n"))
}

func (hostLogger) WriteLineBytes(b []byte) {
	glog.InfoDepth(1, strings.TrimRight(string(b), "\r\n"))
}
