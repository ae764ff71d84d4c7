//go:build tinygo && nrf52833

package hal

import "device/nrf"

const (
	uartTXPin = 6  // P0.06
	uartRXPin = 40 // P1.08
)

// nrfUART is the legacy (non-DMA) UART0, one byte per TXD write.
type nrfUART struct{}

func newNRFUART() *nrfUART {
	nrf.UART0.PSEL.TXD.Set(uartTXPin)
	nrf.UART0.PSEL.RXD.Set(uartRXPin)
	return &nrfUART{}
}

func baudRate(baud int) uint32 {
	switch baud {
	case 9600:
		return nrf.UART_BAUDRATE_BAUDRATE_Baud9600
	case 38400:
		return nrf.UART_BAUDRATE_BAUDRATE_Baud38400
	case 57600:
		return nrf.UART_BAUDRATE_BAUDRATE_Baud57600
	default:
		return nrf.UART_BAUDRATE_BAUDRATE_Baud115200
	}
}

func (nrfUART) Configure(baud int) {
	nrf.UART0.BAUDRATE.Set(baudRate(baud))
	nrf.UART0.CONFIG.Set(0)
	nrf.UART0.ENABLE.Set(nrf.UART_ENABLE_ENABLE_Enabled)
}

func (nrfUART) StartTX() {
	nrf.UART0.EVENTS_TXDRDY.Set(0)
	nrf.UART0.TASKS_STARTTX.Set(1)
	nrf.UART0.INTENSET.Set(nrf.UART_INTENSET_TXDRDY)
}

func (nrfUART) Transmit(b byte) { nrf.UART0.TXD.Set(uint32(b)) }

func (nrfUART) TXDReady() Event { return regEvent{&nrf.UART0.EVENTS_TXDRDY} }

// uartLogger writes kernel diagnostics by polling the UART with interrupts masked. It is only
// used once the system has stopped.
type uartLogger struct {
	intc Interrupts
}

func (l *uartLogger) WriteLineString(s string) {
	l.intc.Mask()
	for i := 0; i < len(s); i++ {
		pollByte(s[i])
	}
	pollByte('\r')
	pollByte('\n')
	l.intc.Unmask()
}

func (l *uartLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func pollByte(b byte) {
	nrf.UART0.EVENTS_TXDRDY.Set(0)
	nrf.UART0.TXD.Set(uint32(b))
	for nrf.UART0.EVENTS_TXDRDY.Get() == 0 {
	}
}
