package strip

import (
	"runtime"
	"time"
)

// Pulse is one bit on the wire: the line is held high for High units, then
// low for Low units.
type Pulse struct {
	High int
	Low  int
}

// Timing holds the pulse shape for each bit value. Only the ratio matters to
// the receiving LEDs as long as the unit is calibrated for the target.
type Timing struct {
	One  Pulse
	Zero Pulse
}

// DefaultTiming is the shape tuned for these strips: a one holds high for
// 22 units and low for 9, a zero is the mirror image.
var DefaultTiming = Timing{
	One:  Pulse{High: 22, Low: 9},
	Zero: Pulse{High: 9, Low: 22},
}

// Period returns the length of one bit in units.
func (t Timing) Period() int {
	return t.One.High + t.One.Low
}

// Holder keeps the line in its current state for n units. Implementations
// must not yield and must take the same time for the same n.
type Holder interface {
	Hold(n int)
}

// HolderFunc adapts a function to Holder.
type HolderFunc func(n int)

func (f HolderFunc) Hold(n int) { f(n) }

// Spin is a calibrated busy loop: PerUnit iterations make one unit.
type Spin struct {
	PerUnit int
}

func (s Spin) Hold(n int) {
	k := n * s.PerUnit
	v := uint32(k)
	for i := 0; i < k; i++ {
		v = v*1664525 + 1013904223
	}
	runtime.KeepAlive(v)
}

// Calibrate returns a Spin whose unit lasts roughly unit on this machine,
// measured over a run of samples iterations. It never returns PerUnit < 1.
func Calibrate(unit time.Duration, samples int) Spin {
	if samples <= 0 {
		samples = 1 << 20
	}
	start := time.Now()
	Spin{PerUnit: 1}.Hold(samples)
	elapsed := time.Since(start)
	if elapsed <= 0 {
		return Spin{PerUnit: 1}
	}
	per := int(float64(samples) * float64(unit) / float64(elapsed))
	if per < 1 {
		per = 1
	}
	return Spin{PerUnit: per}
}

// TimerHold busy waits against a clock, Unit per unit. It suits targets
// with a fast free running timer.
type TimerHold struct {
	Clock Clock
	Unit  time.Duration
}

func (h TimerHold) Hold(n int) {
	d := time.Duration(n) * h.Unit
	start := h.Clock.Now()
	for h.Clock.Now().Sub(start) < d {
	}
}

// sendBit writes high, holds, writes low, holds. The two writes are the only
// port accesses.
func (s *Strip) sendBit(one bool, high, low uint8) {
	p := s.timing.Zero
	if one {
		p = s.timing.One
	}
	s.port.Write(high)
	s.hold.Hold(p.High)
	s.port.Write(low)
	s.hold.Hold(p.Low)
}
