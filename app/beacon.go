package app

import (
	"strconv"

	loggerclient "ubit/ubitos/client/logger"
	radioclient "ubit/ubitos/client/radio"
	timerclient "ubit/ubitos/client/timer"
	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
	"ubit/ubitos/services/display"
)

const defaultBeaconPeriod = 1000

// beacon broadcasts an increasing counter every period.
type beacon struct {
	sys    *System
	period int
	buf    [proto.MaxPayload]byte
}

func (b *beacon) Run(ctx *kernel.Context) {
	timerclient.Pulse(ctx, b.sys.TimerID, b.period)
	n := 0
	for {
		timerclient.Wait(ctx)
		n++
		msg := strconv.AppendInt(b.buf[:0], int64(n), 10)
		radioclient.Send(ctx, b.sys.RadioID, msg)
		loggerclient.Logf(ctx, b.sys.LogID, "sent %s", msg)
	}
}

// listener shows the last character of every packet it hears.
type listener struct {
	sys *System
	buf [proto.MaxPayload]byte
}

func (l *listener) Run(ctx *kernel.Context) {
	for {
		n := radioclient.Receive(ctx, l.sys.RadioID, l.buf[:])
		loggerclient.Logf(ctx, l.sys.LogID, "heard %q", l.buf[:n])
		if n > 0 {
			l.sys.display.Show(display.Glyph(rune(l.buf[n-1])))
		}
	}
}
