//go:build !tinygo

package hal

import (
	"sync"

	"github.com/golang/glog"
)

const etherQueueDepth = 64

// LoopbackEther connects the radios of several simulated boards inside one process.
type LoopbackEther struct {
	mu    sync.Mutex
	ports map[*loopbackPort]struct{}
}

// NewLoopbackEther returns an empty medium.
func NewLoopbackEther() *LoopbackEther {
	return &LoopbackEther{ports: make(map[*loopbackPort]struct{})}
}

type loopbackPort struct {
	ether *LoopbackEther
	ch    chan AirFrame
	done  chan struct{}
	once  sync.Once
}

// Attach starts a delivery goroutine for rx.
func (e *LoopbackEther) Attach(rx func(AirFrame)) EtherPort {
	p := &loopbackPort{
		ether: e,
		ch:    make(chan AirFrame, etherQueueDepth),
		done:  make(chan struct{}),
	}
	e.mu.Lock()
	e.ports[p] = struct{}{}
	e.mu.Unlock()

	go func() {
		for {
			select {
			case f := <-p.ch:
				rx(f)
			case <-p.done:
				return
			}
		}
	}()
	return p
}

func (p *loopbackPort) Transmit(f AirFrame) {
	p.ether.mu.Lock()
	defer p.ether.mu.Unlock()
	for q := range p.ether.ports {
		if q == p {
			continue
		}
		cp := f
		cp.Data = append([]byte(nil), f.Data...)
		select {
		case q.ch <- cp:
		default:
			glog.Warningf("ether: receiver queue full, frame lost")
		}
	}
}

func (p *loopbackPort) Close() error {
	p.once.Do(func() {
		p.ether.mu.Lock()
		delete(p.ether.ports, p)
		p.ether.mu.Unlock()
		close(p.done)
	})
	return nil
}
