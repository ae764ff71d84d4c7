package hal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

var testRadioConfig = RadioConfig{
	Frequency:   7,
	BaseAddress: 0x75626974,
	BaseLength:  4,
	MaxLength:   35,
	CRCInit:     0xffff,
	CRCPoly:     0x11021,
	WhiteningIV: 0x18,
}

func TestCRC16CCITT(t *testing.T) {
	require.Equal(t, uint16(0x29b1), CRC16([]byte("123456789"), 0xffff, 0x11021))
	require.Equal(t, uint16(0xffff), CRC16(nil, 0xffff, 0x11021))
}

func TestWhitenScramblesAndRestores(t *testing.T) {
	orig := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	data := append([]byte(nil), orig...)

	Whiten(data, 0x18)
	require.False(t, bytes.Equal(orig, data), "whitening left a zero run unchanged")

	Whiten(data, 0x18)
	require.Equal(t, orig, data)
}

func TestDecodeAirDetectsCorruption(t *testing.T) {
	pdu := []byte{5, 1, 7, 1, 'h', 'i'}
	f := EncodeAir(testRadioConfig, 7, pdu)
	require.Equal(t, uint8(7), f.Channel)
	require.Len(t, f.Data, len(pdu)+2)

	got, ok := DecodeAir(testRadioConfig, f)
	require.True(t, ok)
	require.Equal(t, pdu, got)

	f.Data[3] ^= 0x10
	_, ok = DecodeAir(testRadioConfig, f)
	require.False(t, ok)

	_, ok = DecodeAir(testRadioConfig, AirFrame{Data: []byte{1}})
	require.False(t, ok)
}
