package radio

import (
	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
)

// Send transmits payload as one frame and returns once it has left the antenna.
func Send(ctx *kernel.Context, radio kernel.TaskID, payload []byte) {
	ctx.Call(radio, kernel.Message{
		Kind: uint16(proto.MsgRadioSend),
		Ptr1: payload,
		Int2: len(payload),
	})
}

// Receive waits for the next frame of the configured group, copies its payload into buf and
// returns the payload length. buf should hold proto.MaxPayload bytes.
func Receive(ctx *kernel.Context, radio kernel.TaskID, buf []byte) int {
	r := ctx.Call(radio, kernel.Message{
		Kind: uint16(proto.MsgRadioReceive),
		Ptr1: buf,
	})
	return r.Int1
}
