package hal

import "encoding/binary"

// AirFrame is one packet as it travels between simulated radios.
//
// Data holds the whitened PDU followed by its two CRC bytes. The prefix byte travels alongside
// because on real hardware it is part of the access address, not of the PDU.
type AirFrame struct {
	Channel uint8
	Prefix  byte
	Data    []byte
}

// CRC16 computes an MSB-first CRC over data. poly may include the x^16 term.
func CRC16(data []byte, init, poly uint32) uint16 {
	crc := uint16(init)
	p := uint16(poly)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ p
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Whiten XORs data in place with the 7-bit LFSR sequence (x^7 + x^4 + 1) seeded from iv.
// Bit 6 of the seed is forced to one, as on the nRF radio. Whitening twice restores data.
func Whiten(data []byte, iv uint8) {
	lfsr := iv&0x3f | 0x40
	for i := range data {
		for bit := uint(0); bit < 8; bit++ {
			out := lfsr & 1
			data[i] ^= out << bit
			lfsr >>= 1
			if out != 0 {
				lfsr ^= 0x48
			}
		}
	}
}

// EncodeAir builds the on-air form of pdu: CRC appended big-endian, then whitened.
func EncodeAir(cfg RadioConfig, prefix byte, pdu []byte) AirFrame {
	data := make([]byte, len(pdu)+2)
	copy(data, pdu)
	binary.BigEndian.PutUint16(data[len(pdu):], CRC16(pdu, cfg.CRCInit, cfg.CRCPoly))
	Whiten(data, cfg.WhiteningIV)
	return AirFrame{Channel: cfg.Frequency, Prefix: prefix, Data: data}
}

// DecodeAir reverses EncodeAir. A frame too short to carry a CRC is reported as a CRC failure.
func DecodeAir(cfg RadioConfig, f AirFrame) (pdu []byte, crcOK bool) {
	if len(f.Data) < 2 {
		return nil, false
	}
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	Whiten(data, cfg.WhiteningIV)
	n := len(data) - 2
	want := binary.BigEndian.Uint16(data[n:])
	return data[:n], CRC16(data[:n], cfg.CRCInit, cfg.CRCPoly) == want
}

// Ether is the shared medium simulated radios transmit into.
type Ether interface {
	// Attach registers a receiver. rx runs on a medium goroutine and must not block.
	Attach(rx func(AirFrame)) EtherPort
}

// EtherPort is one radio's connection to an Ether. A port never hears its own frames.
type EtherPort interface {
	Transmit(f AirFrame)
	Close() error
}
