//go:build tinygo && nrf52833

package hal

import "device/nrf"

// nrfTimer is TIMER1 at 1 MHz in 16-bit mode; compare 0 clears the counter, capture 1 samples it.
type nrfTimer struct{}

func (nrfTimer) Start(periodMicros uint32) {
	t := nrf.TIMER1
	t.TASKS_STOP.Set(1)
	t.MODE.Set(nrf.TIMER_MODE_MODE_Timer)
	t.BITMODE.Set(nrf.TIMER_BITMODE_BITMODE_16Bit)
	t.PRESCALER.Set(4)
	t.TASKS_CLEAR.Set(1)
	t.CC[0].Set(periodMicros)
	t.SHORTS.Set(nrf.TIMER_SHORTS_COMPARE0_CLEAR)
	t.EVENTS_COMPARE[0].Set(0)
	t.INTENSET.Set(nrf.TIMER_INTENSET_COMPARE0)
	t.TASKS_START.Set(1)
}

func (nrfTimer) Stop() { nrf.TIMER1.TASKS_STOP.Set(1) }

func (nrfTimer) Capture() uint32 {
	nrf.TIMER1.TASKS_CAPTURE[1].Set(1)
	return nrf.TIMER1.CC[1].Get()
}

func (nrfTimer) Compare() Event { return regEvent{&nrf.TIMER1.EVENTS_COMPARE[0]} }
