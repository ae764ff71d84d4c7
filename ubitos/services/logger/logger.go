package logger

import (
	serialclient "ubit/ubitos/client/serial"
	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
)

// Service prints log lines on the serial console, each prefixed with the sending task's name.
type Service struct {
	serial kernel.TaskID
}

// New creates a logger that writes through the serial task.
func New(serial kernel.TaskID) *Service {
	return &Service{serial: serial}
}

func (s *Service) Run(ctx *kernel.Context) {
	for {
		msg := ctx.Receive(kernel.KindAny)
		switch proto.Kind(msg.Kind) {
		case proto.MsgLogLine:
			name := ctx.Kernel().TaskName(msg.From)
			serialclient.Print(ctx, s.serial, name+": "+string(msg.Ptr1)+"\n")
		default:
			ctx.Unhandled(msg)
		}
	}
}
