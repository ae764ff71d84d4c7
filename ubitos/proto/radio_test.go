package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeFrameLayout(t *testing.T) {
	var buf [MaxFrame]byte
	n, err := EncodeFrame(buf[:], 42, []byte("hi"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, []byte{5, FrameVersion, 42, FrameProtocol, 'h', 'i'}, buf[:n])
}

func TestEncodeFrameRejectsLongPayload(t *testing.T) {
	var buf [MaxFrame + 8]byte
	_, err := EncodeFrame(buf[:], 0, make([]byte, MaxPayload+1))
	require.ErrorIs(t, err, ErrPayloadTooLarge)

	n, err := EncodeFrame(buf[:], 0, make([]byte, MaxPayload))
	require.NoError(t, err)
	require.Equal(t, MaxFrame, n)
	require.Equal(t, byte(MaxLength), buf[0])
}

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame([]byte{6, 1, 9, 1, 'a', 'b', 'c', 0xff})
	require.NoError(t, err)
	require.Equal(t, uint8(9), f.Group)
	require.Equal(t, []byte("abc"), f.Payload)

	empty, err := DecodeFrame([]byte{3, 1, 9, 1})
	require.NoError(t, err)
	require.Empty(t, empty.Payload)
}

func TestDecodeFrameErrors(t *testing.T) {
	_, err := DecodeFrame([]byte{3, 1})
	require.ErrorIs(t, err, ErrShortFrame)

	_, err = DecodeFrame([]byte{2, 1, 0, 1})
	require.ErrorIs(t, err, ErrBadLength)

	_, err = DecodeFrame([]byte{MaxLength + 1, 1, 0, 1})
	require.ErrorIs(t, err, ErrBadLength)

	_, err = DecodeFrame([]byte{10, 1, 0, 1, 'x'})
	require.ErrorIs(t, err, ErrShortFrame)
}
