//go:build !tinygo

package hal

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// HostTimer models a 1 MHz counter that clears on compare.
//
// Time only moves through Advance, either from a test or from Run, which tracks the wall
// clock. The compare event and its interrupt are raised on the goroutine that advances time.
type HostTimer struct {
	intc Interrupts

	mu      sync.Mutex
	period  uint32
	count   uint32
	running bool

	compare hostEvent
}

// NewHostTimer returns a stopped timer.
func NewHostTimer(intc Interrupts) *HostTimer {
	return &HostTimer{intc: intc}
}

func (t *HostTimer) Start(periodMicros uint32) {
	if periodMicros == 0 {
		periodMicros = 1
	}
	t.mu.Lock()
	t.period = periodMicros
	t.count = 0
	t.running = true
	t.mu.Unlock()
}

func (t *HostTimer) Stop() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
}

func (t *HostTimer) Capture() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *HostTimer) Compare() Event { return &t.compare }

// Advance moves the counter forward by us microseconds, firing Compare each time it wraps.
func (t *HostTimer) Advance(us uint32) {
	for {
		t.mu.Lock()
		if !t.running {
			t.mu.Unlock()
			return
		}
		left := t.period - t.count
		if us < left {
			t.count += us
			t.mu.Unlock()
			return
		}
		us -= left
		// The counter clears and the event fires on the same edge.
		t.count = 0
		t.compare.set()
		t.mu.Unlock()

		if t.intc != nil {
			t.intc.Raise(IRQTimer1)
		}
	}
}

// AdvanceMillis is Advance(ms*1000).
func (t *HostTimer) AdvanceMillis(ms uint32) {
	for ; ms > 0; ms-- {
		t.Advance(1000)
	}
}

// Run advances the timer with the wall clock until ctx is done.
func (t *HostTimer) Run(ctx context.Context, resolution time.Duration) {
	if resolution <= 0 {
		resolution = time.Millisecond
	}
	tk := time.NewTicker(resolution)
	defer tk.Stop()

	last := time.Now()
	var acc time.Duration
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tk.C:
			acc += now.Sub(last)
			last = now
			us := acc / time.Microsecond
			acc -= us * time.Microsecond
			// Long stalls (a suspended laptop) are not replayed tick by tick.
			if us > 1000000 {
				glog.Warningf("timer: skipped %v of simulated time", us*time.Microsecond)
				us = 1000000
			}
			t.Advance(uint32(us))
		}
	}
}
