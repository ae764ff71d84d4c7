package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// ErrNotImplemented is returned by host features missing from this build.
var ErrNotImplemented = errors.New("not implemented")

// IRQ identifies an interrupt line. The numbers follow the nRF51/nRF52 vector table.
type IRQ uint8

const (
	IRQRadio  IRQ = 1
	IRQUART   IRQ = 2
	IRQTimer1 IRQ = 9

	// MaxIRQ bounds the interrupt lines a controller has to track.
	MaxIRQ = 32
)

// Event is a single-bit hardware event latch: set by the peripheral, cleared by software.
type Event interface {
	Fired() bool
	Clear()
}

// Interrupts is the interrupt controller.
//
// Handlers run in interrupt context: they may not block and must not call Enable while
// interrupts are masked by the same goroutine.
type Interrupts interface {
	SetHandler(irq IRQ, fn func())
	Enable(irq IRQ)
	Disable(irq IRQ)
	ClearPending(irq IRQ)

	// Raise marks irq pending. Peripherals call it when an enabled event fires.
	Raise(irq IRQ)

	// Mask and Unmask bracket a critical section during which no handler runs.
	Mask()
	Unmask()
}

// RadioConfig holds the fixed link settings loaded at driver start.
type RadioConfig struct {
	Frequency   uint8  // MHz above 2400
	BaseAddress uint32 // logical address 0 base
	BaseLength  uint8  // bytes of BaseAddress sent on air, 2 to 4
	MaxLength   uint8  // largest PDU the DMA may write, excluding the length byte
	CRCInit     uint32
	CRCPoly     uint32
	WhiteningIV uint8
}

// Radio is the 2.4 GHz packet transceiver.
//
// The packet buffer set with SetPacketBuffer is owned by the peripheral between Start and the
// End event.
type Radio interface {
	Configure(cfg RadioConfig)
	SetPacketBuffer(buf []byte)
	SetPrefix(prefix byte)

	RXEnable()
	TXEnable()
	Start()
	Disable()

	Ready() Event
	End() Event
	Disabled() Event

	// CRCOK reports the CRC status of the last received packet.
	CRCOK() bool
}

// Timer is a free-running 1 MHz counter that clears itself (and fires Compare) every period.
type Timer interface {
	Start(periodMicros uint32)
	Stop()
	Capture() uint32
	Compare() Event
}

// UART is the transmit side of the serial port.
type UART interface {
	Configure(baud int)
	StartTX()
	Transmit(b byte)
	TXDReady() Event
}

// Matrix drives the LED matrix, one row at a time.
type Matrix interface {
	Rows() int
	Cols() int
	// Blank switches all rows and columns off.
	Blank()
	// SetColumns drives the column lines for the lit pixels in mask (bit x = column x).
	SetColumns(mask uint8)
	// EnableRow energises one row.
	EnableRow(row int)
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	Interrupts() Interrupts
	Radio() Radio
	Timer() Timer
	UART() UART
	Matrix() Matrix
}
