//go:build !tinygo

package hal

import (
	"fmt"
	"io"

	"github.com/mattn/go-tty"
	"github.com/tarm/serial"
)

// OpenSerialPort opens a real serial device as a UART sink.
func OpenSerialPort(name string, baud int) (io.WriteCloser, error) {
	p, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return p, nil
}

// OpenTTY opens the controlling terminal as a UART sink.
func OpenTTY() (io.WriteCloser, error) {
	t, err := tty.Open()
	if err != nil {
		return nil, fmt.Errorf("open tty: %w", err)
	}
	return &ttySink{t: t}, nil
}

type ttySink struct {
	t *tty.TTY
}

func (s *ttySink) Write(p []byte) (int, error) { return s.t.Output().Write(p) }
func (s *ttySink) Close() error                { return s.t.Close() }
