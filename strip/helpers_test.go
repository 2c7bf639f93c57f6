package strip_test

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/coreman2200/radioshack-strip/strip"
)

// recordPort is a register that remembers every value written.
type recordPort struct {
	v      uint8
	writes []uint8
}

func (p *recordPort) Read() uint8 { return p.v }

func (p *recordPort) Write(v uint8) {
	p.v = v
	p.writes = append(p.writes, v)
}

// recordHold keeps the requested hold lengths.
type recordHold struct {
	holds []int
}

func (h *recordHold) Hold(n int) { h.holds = append(h.holds, n) }

type recordGuard struct {
	events []string
	port   *recordPort
	at     []int
}

func (g *recordGuard) Enter() {
	g.events = append(g.events, "enter")
	g.at = append(g.at, len(g.port.writes))
}

func (g *recordGuard) Exit() {
	g.events = append(g.events, "exit")
	g.at = append(g.at, len(g.port.writes))
}

// timedPort stamps every write with the mock time.
type timedPort struct {
	clock *clock.Mock
	v     uint8
	at    []time.Time
}

func (p *timedPort) Read() uint8 { return p.v }

func (p *timedPort) Write(v uint8) {
	p.v = v
	p.at = append(p.at, p.clock.Now())
}

// timedObserver records when each frame ended and how many writes the port
// had seen by then.
type timedObserver struct {
	port   *timedPort
	ends   []time.Time
	writes []int
}

func (o *timedObserver) FrameSent(strip.FrameStats) {
	o.ends = append(o.ends, o.port.clock.Now())
	o.writes = append(o.writes, len(o.port.at))
}

type recordObserver struct {
	frames []strip.FrameStats
}

func (o *recordObserver) FrameSent(f strip.FrameStats) { o.frames = append(o.frames, f) }

// steppingClock moves a mock clock forward on every read, the way a real
// clock does while a busy loop polls it.
type steppingClock struct {
	mock *clock.Mock
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mock.Add(c.step)
	return c.mock.Now()
}

// failPin is a line whose writes fail.
type failPin struct {
	*gpiotest.Pin
}

func (failPin) Out(gpio.Level) error { return errors.New("bus fault") }

func newPin() *gpiotest.Pin {
	return &gpiotest.Pin{N: "GPIO18", Num: 18}
}

type rig struct {
	port  *recordPort
	hold  *recordHold
	guard *recordGuard
	obs   *recordObserver
	clk   *steppingClock
}

func newRig() *rig {
	p := &recordPort{}
	return &rig{
		port:  p,
		hold:  &recordHold{},
		guard: &recordGuard{port: p},
		obs:   &recordObserver{},
		clk:   &steppingClock{mock: clock.NewMock(), step: time.Microsecond},
	}
}

func (r *rig) options(mask uint8) []strip.Option {
	return []strip.Option{
		strip.WithPort(r.port, mask),
		strip.WithHolder(r.hold),
		strip.WithGuard(r.guard),
		strip.WithObserver(r.obs),
		strip.WithClock(r.clk),
	}
}
