package proto

// Kind identifies the message type carried in kernel.Message.Kind.
type Kind uint16

// MsgInterrupt and MsgReply mirror the kinds the kernel reserves for itself.
const (
	MsgInterrupt Kind = 1
	MsgReply     Kind = 2
)

const (
	// MsgPing is sent by the timer service when a registered timer expires.
	// Int1 carries the deadline in milliseconds.
	MsgPing Kind = iota + 16
	// MsgRegister asks the timer service for a timer. Int1 = delay in ms, Int2 != 0 repeats.
	MsgRegister
	// MsgRadioSend asks the radio to transmit Ptr1[:Int2] as one frame.
	MsgRadioSend
	// MsgRadioReceive asks the radio for the next frame, copied into Ptr1. The reply carries
	// the payload length in Int1.
	MsgRadioReceive
	// MsgPutc queues the byte in Int1 for serial output.
	MsgPutc
	// MsgSerialWrite queues Ptr1[:Int2] for serial output.
	MsgSerialWrite
	// MsgLogLine asks the logger to print Ptr1 as one line.
	MsgLogLine
)

func (k Kind) String() string {
	switch k {
	case MsgInterrupt:
		return "interrupt"
	case MsgReply:
		return "reply"
	case MsgPing:
		return "ping"
	case MsgRegister:
		return "register"
	case MsgRadioSend:
		return "radio_send"
	case MsgRadioReceive:
		return "radio_receive"
	case MsgPutc:
		return "putc"
	case MsgSerialWrite:
		return "serial_write"
	case MsgLogLine:
		return "log_line"
	default:
		return "unknown"
	}
}
