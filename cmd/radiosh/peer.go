package main

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"ubit/hal"
	"ubit/ubitos/proto"
	"ubit/ubitos/services/radio"
)

// Heard is one frame received by the peer.
type Heard struct {
	Group   uint8
	Payload []byte
}

// peer is a radio that lives on the host: it speaks the boards' air format directly, without
// a kernel behind it.
type peer struct {
	cfg   hal.RadioConfig
	port  hal.EtherPort
	group atomic.Uint32

	// all makes the peer report frames of every group.
	all atomic.Bool

	mu      sync.Mutex
	onHeard func(Heard)

	sent, heard, dropped atomic.Uint64
}

func newPeer(ether hal.Ether, group uint8) *peer {
	p := &peer{cfg: radio.Config}
	p.group.Store(uint32(group))
	p.port = ether.Attach(p.receive)
	return p
}

func (p *peer) Group() uint8 { return uint8(p.group.Load()) }

func (p *peer) SetGroup(g uint8) { p.group.Store(uint32(g)) }

func (p *peer) OnHeard(fn func(Heard)) {
	p.mu.Lock()
	p.onHeard = fn
	p.mu.Unlock()
}

// Send transmits payload as one frame of the current group.
func (p *peer) Send(payload []byte) error {
	var buf [proto.MaxFrame]byte
	g := p.Group()
	n, err := proto.EncodeFrame(buf[:], g, payload)
	if err != nil {
		return fmt.Errorf("radiosh: send: %w", err)
	}
	p.port.Transmit(hal.EncodeAir(p.cfg, g, buf[:n]))
	p.sent.Add(1)
	return nil
}

func (p *peer) receive(f hal.AirFrame) {
	if f.Channel != p.cfg.Frequency {
		return
	}
	if !p.all.Load() && f.Prefix != p.Group() {
		return
	}
	pdu, ok := hal.DecodeAir(p.cfg, f)
	if !ok {
		p.dropped.Add(1)
		glog.V(2).Infof("radiosh: bad CRC from prefix %d", f.Prefix)
		return
	}
	fr, err := proto.DecodeFrame(pdu)
	if err != nil {
		p.dropped.Add(1)
		glog.V(2).Infof("radiosh: %v", err)
		return
	}
	if !p.all.Load() && fr.Group != p.Group() {
		return
	}
	p.heard.Add(1)

	p.mu.Lock()
	fn := p.onHeard
	p.mu.Unlock()
	if fn != nil {
		fn(Heard{Group: fr.Group, Payload: append([]byte(nil), fr.Payload...)})
	}
}

func (p *peer) Close() error { return p.port.Close() }
