package logger

import (
	"fmt"

	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
)

// MaxLine is the longest line the logger prints; longer lines are cut.
const MaxLine = 80

// Log hands line to the logger task. The line is copied, so the caller may reuse its buffer
// as soon as Log returns.
func Log(ctx *kernel.Context, logger kernel.TaskID, line string) {
	if len(line) > MaxLine {
		line = line[:MaxLine]
	}
	ctx.Send(logger, kernel.Message{Kind: uint16(proto.MsgLogLine), Ptr1: []byte(line)})
}

// Logf formats a line and hands it to the logger task.
func Logf(ctx *kernel.Context, logger kernel.TaskID, format string, args ...any) {
	Log(ctx, logger, fmt.Sprintf(format, args...))
}
