package serial

import (
	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
)

// Putc queues one byte for output. It returns once the byte is in the driver's buffer.
func Putc(ctx *kernel.Context, serial kernel.TaskID, b byte) {
	ctx.Call(serial, kernel.Message{Kind: uint16(proto.MsgPutc), Int1: int(b)})
}

// Write queues p for output in one request.
func Write(ctx *kernel.Context, serial kernel.TaskID, p []byte) {
	if len(p) == 0 {
		return
	}
	ctx.Call(serial, kernel.Message{Kind: uint16(proto.MsgSerialWrite), Ptr1: p, Int2: len(p)})
}

// Print writes s with each "\n" expanded to "\r\n".
func Print(ctx *kernel.Context, serial kernel.TaskID, s string) {
	var buf [64]byte
	n := 0
	flush := func() {
		Write(ctx, serial, buf[:n])
		n = 0
	}
	for i := 0; i < len(s); i++ {
		if n+2 > len(buf) {
			flush()
		}
		if s[i] == '\n' {
			buf[n] = '\r'
			n++
		}
		buf[n] = s[i]
		n++
	}
	flush()
}
