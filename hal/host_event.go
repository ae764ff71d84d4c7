//go:build !tinygo

package hal

import "sync/atomic"

// hostEvent is an event latch shared between a peripheral model and its driver.
type hostEvent struct {
	v atomic.Bool
}

func (e *hostEvent) Fired() bool { return e.v.Load() }
func (e *hostEvent) Clear()      { e.v.Store(false) }
func (e *hostEvent) set()        { e.v.Store(true) }
