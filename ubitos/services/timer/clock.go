package timer

// Micros returns the microseconds since the timer started.
//
// The hardware counter may wrap after it was sampled but before the interrupt that advances
// the clock has run. The counter is read on both sides of the pending event so the wrap can be
// attributed to one side or the other.
func (s *Service) Micros() uint32 {
	var t1, t2, ms uint32
	var pending bool

	s.intc.Mask()
	t1 = s.hw.Capture()
	pending = s.hw.Compare().Fired()
	t2 = s.hw.Capture()
	ms = s.millis.Load()
	s.intc.Unmask()

	return micros(ms, t1, t2, pending, s.tick)
}

// micros combines a clock sample. A pending compare event only counts if the counter did
// not wrap between the two captures; if it did, t1 belongs to the old period.
func micros(ms, t1, t2 uint32, pending bool, tick uint32) uint32 {
	if pending && t1 <= t2 {
		ms += tick
	}
	return 1000*ms + t1
}
