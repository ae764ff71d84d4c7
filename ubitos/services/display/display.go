package display

import (
	"ubit/hal"
	timerclient "ubit/ubitos/client/timer"
	"ubit/ubitos/kernel"
)

// DefaultPeriod is the time each row stays lit, in milliseconds.
const DefaultPeriod = 5

// Service scans the LED matrix one row per timer ping.
//
// The current image belongs to the scanner. Other tasks replace it as a whole with Show;
// because only one task runs at a time a row is never drawn from half an update. That holds
// on a single core only; with more than one core Show would need a lock or an atomic pointer
// swap.
type Service struct {
	m      hal.Matrix
	timer  kernel.TaskID
	period int

	cur Image
}

// New creates a scanner for m driven by the timer task.
func New(m hal.Matrix, timer kernel.TaskID, periodMillis int) *Service {
	if periodMillis <= 0 {
		periodMillis = DefaultPeriod
	}
	return &Service{m: m, timer: timer, period: periodMillis}
}

// Show replaces the displayed image. Call it from task context only.
func (s *Service) Show(img Image) { s.cur = img }

// Current returns the displayed image. Call it from task context only.
func (s *Service) Current() Image { return s.cur }

func (s *Service) Run(ctx *kernel.Context) {
	ctx.SetPriority(kernel.PriorityHigh)
	s.m.Blank()
	timerclient.Pulse(ctx, s.timer, s.period)

	rows := s.m.Rows()
	if rows > Height {
		rows = Height
	}
	row := 0
	for {
		timerclient.Wait(ctx)
		// Rows go dark first and are driven last so the new columns never show on the
		// previous row.
		s.m.Blank()
		s.m.SetColumns(s.cur[row])
		s.m.EnableRow(row)
		row = (row + 1) % rows
	}
}
