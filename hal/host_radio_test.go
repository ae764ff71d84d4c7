//go:build !tinygo

package hal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRadioDropsFramesUntilArmed(t *testing.T) {
	e := NewLoopbackEther()
	intc := NewHostInterrupts()
	r := NewHostRadio(intc, e)
	defer r.Close()
	tx := e.Attach(func(AirFrame) {})
	defer tx.Close()

	buf := make([]byte, 36)
	r.Configure(testRadioConfig)
	r.SetPacketBuffer(buf)
	r.SetPrefix(7)
	pdu := []byte{5, 1, 7, 1, 'h', 'i'}

	tx.Transmit(EncodeAir(testRadioConfig, 7, pdu))
	time.Sleep(20 * time.Millisecond)
	require.False(t, r.End().Fired(), "frame reached a receiver that was not armed")

	r.RXEnable()
	r.Start()
	require.True(t, r.Listening())

	tx.Transmit(EncodeAir(testRadioConfig, 8, pdu))
	time.Sleep(20 * time.Millisecond)
	require.False(t, r.End().Fired(), "frame for another prefix was received")

	tx.Transmit(EncodeAir(testRadioConfig, 7, pdu))
	require.Eventually(t, r.End().Fired, time.Second, time.Millisecond)
	require.True(t, r.CRCOK())
	require.Equal(t, pdu, buf[:len(pdu)])
	require.False(t, r.Listening())
}

func TestRadioKeepsLinkConfig(t *testing.T) {
	r := NewHostRadio(nil, nil)
	r.Configure(testRadioConfig)
	require.Equal(t, testRadioConfig, r.Config())
}

type brokenSink struct{ n int }

func (w *brokenSink) Write(p []byte) (int, error) {
	w.n++
	return 0, errors.New("unplugged")
}

func TestUARTCompletesWhenSinkFails(t *testing.T) {
	intc := NewHostInterrupts()
	w := &brokenSink{}
	u := NewHostUART(intc, w)
	u.Configure(115200)
	u.StartTX()

	u.Transmit('x')
	require.Equal(t, 1, w.n)
	require.Equal(t, []byte("x"), u.Written())
	require.False(t, u.Busy())
	require.True(t, u.TXDReady().Fired())
}
