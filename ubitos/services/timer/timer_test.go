package timer

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ubit/hal"
	timerclient "ubit/ubitos/client/timer"
	"ubit/ubitos/kernel"
)

const testTimeout = 1 * time.Second

type taskFunc func(*kernel.Context)

func (f taskFunc) Run(c *kernel.Context) { f(c) }

type recorder[T any] struct {
	mu   sync.Mutex
	vals []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.vals = append(r.vals, v)
	r.mu.Unlock()
}

func (r *recorder[T]) get() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.vals...)
}

func waitIdle(t *testing.T, k *kernel.Kernel) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		k.WaitIdle()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for kernel to go idle")
	}
}

type rig struct {
	k   *kernel.Kernel
	hw  *hal.HostTimer
	svc *Service
	id  kernel.TaskID
}

func newRig(t *testing.T, tick int) *rig {
	t.Helper()
	intc := hal.NewHostInterrupts()
	r := &rig{
		k:  kernel.New(intc, nil),
		hw: hal.NewHostTimer(intc),
	}
	r.svc = New(r.hw, intc, tick)
	r.id = r.k.AddTask("timer", r.svc)
	t.Cleanup(r.k.Shutdown)
	return r
}

// step advances the clock one millisecond at a time, letting the tasks settle after each.
func (r *rig) step(t *testing.T, ms int) {
	t.Helper()
	for i := 0; i < ms; i++ {
		r.hw.AdvanceMillis(1)
		waitIdle(t, r.k)
	}
}

func TestPulseKeepsPhase(t *testing.T) {
	r := newRig(t, 1)
	type ping struct{ deadline, now uint32 }
	var got recorder[ping]

	r.k.AddTask("client", taskFunc(func(c *kernel.Context) {
		timerclient.Pulse(c, r.id, 10)
		for {
			d := timerclient.Wait(c)
			got.add(ping{d, r.svc.Now()})
		}
	}))
	r.k.Boot()
	waitIdle(t, r.k)

	r.step(t, 55)

	pings := got.get()
	require.Len(t, pings, 5)
	for i, p := range pings {
		require.Equal(t, uint32(10*(i+1)), p.deadline)
		require.Equal(t, p.deadline, p.now)
	}
}

func TestPulseKeepsPhaseWhenCheckRunsLate(t *testing.T) {
	r := newRig(t, 1)
	var got recorder[uint32]

	r.k.AddTask("client", taskFunc(func(c *kernel.Context) {
		timerclient.Pulse(c, r.id, 10)
		for {
			got.add(timerclient.Wait(c))
		}
	}))
	r.k.Boot()
	waitIdle(t, r.k)

	// A task that keeps the CPU while the clock runs on underneath it.
	busy := make(chan struct{})
	release := make(chan struct{})
	r.k.AddTask("hog", taskFunc(func(c *kernel.Context) {
		busy <- struct{}{}
		<-release
	}))
	select {
	case <-busy:
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for hog to run")
	}
	r.hw.AdvanceMillis(31)
	require.Equal(t, uint32(31), r.svc.Now())
	require.Empty(t, got.get())

	close(release)
	waitIdle(t, r.k)
	r.step(t, 34)

	require.Equal(t, []uint32{10, 20, 30, 40, 50, 60}, got.get())
	require.Equal(t, uint32(65), r.svc.Now())
}

func TestPulseKeepsPhaseWithCoarseTick(t *testing.T) {
	r := newRig(t, 5)
	var got recorder[uint32]

	r.k.AddTask("client", taskFunc(func(c *kernel.Context) {
		timerclient.Pulse(c, r.id, 12)
		for {
			got.add(timerclient.Wait(c))
		}
	}))
	r.k.Boot()
	waitIdle(t, r.k)

	r.step(t, 100)

	// Pings arrive late by up to one tick but never drift.
	require.Equal(t, []uint32{12, 24, 36, 48, 60, 72, 84, 96}, got.get())
	require.Equal(t, uint32(100), r.svc.Now())
}

func TestDelayNeverFiresEarly(t *testing.T) {
	r := newRig(t, 1)
	var woke recorder[uint32]

	r.k.AddTask("client", taskFunc(func(c *kernel.Context) {
		timerclient.Delay(c, r.id, 5)
		woke.add(r.svc.Now())
	}))
	r.k.Boot()
	waitIdle(t, r.k)

	r.step(t, 5)
	require.Empty(t, woke.get())

	r.step(t, 1)
	require.Equal(t, []uint32{6}, woke.get())
	require.Zero(t, r.svc.active())

	r.step(t, 20)
	require.Len(t, woke.get(), 1)
}

func TestTableFull(t *testing.T) {
	r := newRig(t, 1)
	infos := make(chan kernel.PanicInfo, 1)
	r.k.SetPanicHandler(func(info kernel.PanicInfo) { infos <- info })

	r.k.AddTask("greedy", taskFunc(func(c *kernel.Context) {
		for i := 0; i < MaxTimers; i++ {
			timerclient.Pulse(c, r.id, 100)
		}
	}))
	r.k.Boot()
	waitIdle(t, r.k)
	require.Equal(t, MaxTimers, r.svc.active())
	require.Empty(t, infos)

	r.k.AddTask("one-more", taskFunc(func(c *kernel.Context) {
		timerclient.Pulse(c, r.id, 100)
	}))
	waitIdle(t, r.k)

	select {
	case info := <-infos:
		require.Equal(t, "timer", info.Task)
		require.Equal(t, "too many timers", info.Value)
	case <-time.After(testTimeout):
		t.Fatal("expected a fatal abort")
	}
}

func TestOneShotSlotIsReused(t *testing.T) {
	r := newRig(t, 1)
	var woke recorder[int]

	r.k.AddTask("client", taskFunc(func(c *kernel.Context) {
		for i := 0; i < 3*MaxTimers; i++ {
			timerclient.Delay(c, r.id, 1)
			woke.add(i)
		}
	}))
	r.k.Boot()
	waitIdle(t, r.k)

	r.step(t, 3*MaxTimers*2)
	require.Len(t, woke.get(), 3*MaxTimers)
	require.Zero(t, r.svc.active())
}

func TestMicrosSample(t *testing.T) {
	for _, tc := range []struct {
		name    string
		ms      uint32
		t1, t2  uint32
		pending bool
		want    uint32
	}{
		{"steady", 7, 250, 251, false, 7250},
		{"wrapped before sample", 7, 3, 4, true, 8003},
		{"wrapped between captures", 7, 999, 0, true, 7999},
		{"wrapped at first capture", 7, 0, 0, true, 8000},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, micros(tc.ms, tc.t1, tc.t2, tc.pending, 1))
		})
	}
}

func TestMicrosMonotonic(t *testing.T) {
	r := newRig(t, 1)
	r.k.Boot()
	waitIdle(t, r.k)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 5000; i++ {
			r.hw.Advance(uint32(rng.Intn(700) + 1))
		}
	}()

	var last uint32
	for {
		now := r.svc.Micros()
		require.GreaterOrEqual(t, now, last)
		last = now
		select {
		case <-done:
			require.GreaterOrEqual(t, r.svc.Micros(), last)
			return
		default:
		}
	}
}
