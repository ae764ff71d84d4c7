package app

import (
	"errors"

	"ubit/hal"
	"ubit/internal/buildinfo"
	loggerclient "ubit/ubitos/client/logger"
	"ubit/ubitos/kernel"
	"ubit/ubitos/proto"
	"ubit/ubitos/services/display"
	"ubit/ubitos/services/logger"
	"ubit/ubitos/services/radio"
	"ubit/ubitos/services/serial"
	"ubit/ubitos/services/timer"
)

// ErrHalted is returned by the step function once a fatal abort has stopped the system.
var ErrHalted = errors.New("ubit: system halted")

type Config struct {
	// Group is the radio group every board of one exercise shares.
	Group uint8
	// Tick is the timer resolution in milliseconds; V1 boards use 5.
	Tick int
	Baud int
	// Beacon starts the demo that broadcasts a counter and shows what it hears.
	Beacon bool
	// BeaconPeriod is the beacon interval in milliseconds.
	BeaconPeriod int
}

// System is the set of driver tasks running on one board.
type System struct {
	h hal.HAL
	k *kernel.Kernel

	timer   *timer.Service
	radio   *radio.Service
	display *display.Service

	TimerID   kernel.TaskID
	SerialID  kernel.TaskID
	LogID     kernel.TaskID
	RadioID   kernel.TaskID
	DisplayID kernel.TaskID
}

// NewSystem creates the drivers and the startup task. Nothing runs until Boot.
func NewSystem(h hal.HAL, cfg Config) *System {
	s := &System{
		h: h,
		k: kernel.New(h.Interrupts(), h.Logger()),
	}
	s.k.SetPanicHandler(s.panicked)
	s.k.SetKindNamer(func(kind uint16) string { return proto.Kind(kind).String() })

	s.timer = timer.New(h.Timer(), h.Interrupts(), cfg.Tick)
	s.TimerID = s.k.AddTask("timer", s.timer)
	s.SerialID = s.k.AddTask("serial", serial.New(h.UART(), cfg.Baud))
	s.LogID = s.k.AddTask("log", logger.New(s.SerialID))

	s.radio = radio.New(h.Radio())
	s.radio.SetGroup(cfg.Group)
	s.RadioID = s.k.AddTask("radio", s.radio)

	s.display = display.New(h.Matrix(), s.TimerID, display.DefaultPeriod)
	s.DisplayID = s.k.AddTask("display", s.display)

	s.k.AddTask("main", &startup{sys: s})
	if cfg.Beacon {
		period := cfg.BeaconPeriod
		if period <= 0 {
			period = defaultBeaconPeriod
		}
		s.k.AddTask("beacon", &beacon{sys: s, period: period})
		s.k.AddTask("listen", &listener{sys: s})
	}
	return s
}

// New creates and boots the system. The returned step function reports ErrHalted once a
// fatal abort has stopped it.
func New(h hal.HAL, cfg Config) func() error {
	s := NewSystem(h, cfg)
	s.Boot()
	return s.Step
}

// Run boots the system and never returns. After a fatal abort the panic face stays on the
// matrix.
func Run(h hal.HAL, cfg Config) {
	s := NewSystem(h, cfg)
	s.Boot()
	<-s.k.Halted()
	for {
		scanFace(h.Matrix(), sadFace)
	}
}

func (s *System) Boot() { s.k.Boot() }

func (s *System) Kernel() *kernel.Kernel { return s.k }

func (s *System) Timer() *timer.Service { return s.timer }

func (s *System) Radio() *radio.Service { return s.radio }

func (s *System) Display() *display.Service { return s.display }

// Step reports whether the system is still running.
func (s *System) Step() error {
	select {
	case <-s.k.Halted():
		return ErrHalted
	default:
		return nil
	}
}

var heart = display.Parse([display.Height]string{
	".#.#.",
	"#####",
	"#####",
	".###.",
	"..#..",
})

// startup greets on the console and puts a heart on the display.
type startup struct {
	sys *System
}

func (t *startup) Run(ctx *kernel.Context) {
	loggerclient.Logf(ctx, t.sys.LogID, "ubit %s group %d tick %dms",
		buildinfo.Short(), t.sys.radio.Group(), t.sys.timer.Tick())
	t.sys.display.Show(heart)
}
