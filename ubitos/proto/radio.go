package proto

import "errors"

// Radio frame layout, shared with the stock micro:bit runtime:
//
//	length | version | group | protocol | payload...
//
// length counts the three header bytes that follow it plus the payload.
const (
	MaxPayload = 32

	FrameHeader   = 4
	MaxFrame      = FrameHeader + MaxPayload
	FrameVersion  = 1
	FrameProtocol = 1

	// MaxLength is the largest value of the length byte.
	MaxLength = MaxPayload + 3
)

var (
	ErrPayloadTooLarge = errors.New("radio payload too large")
	ErrShortFrame      = errors.New("radio frame too short")
	ErrBadLength       = errors.New("radio frame length out of range")
)

// Frame is a decoded radio frame. Payload aliases the buffer it was decoded from.
type Frame struct {
	Version  uint8
	Group    uint8
	Protocol uint8
	Payload  []byte
}

// EncodeFrame lays payload out in buf as a frame for group and returns the number of bytes used.
func EncodeFrame(buf []byte, group uint8, payload []byte) (int, error) {
	if len(payload) > MaxPayload {
		return 0, ErrPayloadTooLarge
	}
	n := FrameHeader + len(payload)
	if len(buf) < n {
		return 0, ErrShortFrame
	}
	buf[0] = byte(len(payload) + 3)
	buf[1] = FrameVersion
	buf[2] = group
	buf[3] = FrameProtocol
	copy(buf[FrameHeader:], payload)
	return n, nil
}

// DecodeFrame parses a frame from buf.
func DecodeFrame(buf []byte) (Frame, error) {
	if len(buf) < FrameHeader {
		return Frame{}, ErrShortFrame
	}
	length := int(buf[0])
	if length < 3 || length > MaxLength {
		return Frame{}, ErrBadLength
	}
	n := length - 3
	if len(buf) < FrameHeader+n {
		return Frame{}, ErrShortFrame
	}
	return Frame{
		Version:  buf[1],
		Group:    buf[2],
		Protocol: buf[3],
		Payload:  buf[FrameHeader : FrameHeader+n],
	}, nil
}
