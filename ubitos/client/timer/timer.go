package timer

import (
	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
)

// Delay blocks the caller for at least ms milliseconds.
func Delay(ctx *kernel.Context, timer kernel.TaskID, ms int) {
	ctx.Send(timer, kernel.Message{Kind: uint16(proto.MsgRegister), Int1: ms})
	ctx.Receive(uint16(proto.MsgPing))
}

// Pulse asks for a ping every ms milliseconds. Collect them with Wait.
func Pulse(ctx *kernel.Context, timer kernel.TaskID, ms int) {
	ctx.Send(timer, kernel.Message{Kind: uint16(proto.MsgRegister), Int1: ms, Int2: 1})
}

// Wait blocks until the next ping and returns its deadline in milliseconds.
func Wait(ctx *kernel.Context) uint32 {
	return uint32(ctx.Receive(uint16(proto.MsgPing)).Int1)
}
