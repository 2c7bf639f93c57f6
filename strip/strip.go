// Package strip drives a single wire RGB LED strip where each bit is encoded
// by how long the line stays high, followed by a low phase.
//
// Pixels are kept in a wire order buffer (red, blue, green) and nothing is
// sent until Show. Show waits out the latch period since the previous frame
// then sends the whole buffer inside a Guard.
package strip

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
)

// DefaultLatch is the minimum idle time between two frames.
const DefaultLatch = 20 * time.Microsecond

// Clock is the time source used for latch timing. github.com/benbjohnson/clock
// satisfies it.
type Clock interface {
	Now() time.Time
}

type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now() }

// FrameStats describes one Show.
type FrameStats struct {
	Bits     int
	Wait     time.Duration
	Duration time.Duration
}

// Observer is told about every frame sent. It runs after the guard is
// released.
type Observer interface {
	FrameSent(FrameStats)
}

// Strip is a handle to one LED strip on one output line.
//
// A Strip is not safe for concurrent use.
type Strip struct {
	numLeds    int
	pixels     []byte
	brightness uint8

	pin    gpio.PinIO
	port   Port
	mask   uint8
	hold   Holder
	timing Timing
	guard  Guard
	clock  Clock
	latch  uint32
	obs    Observer
	log    zerolog.Logger

	sent    bool
	endTime uint32
}

// Option configures a Strip.
type Option func(*settings)

type settings struct {
	port   Port
	mask   uint8
	hold   Holder
	timing Timing
	guard  Guard
	clock  Clock
	latch  time.Duration
	alloc  func(n int) []byte
	obs    Observer
	log    zerolog.Logger
}

// WithPort sends frames through a register instead of the pin. mask selects
// the bit wired to the strip.
func WithPort(p Port, mask uint8) Option {
	return func(s *settings) {
		s.port = p
		s.mask = mask
	}
}

// WithHolder sets the delay primitive used between port writes.
func WithHolder(h Holder) Option {
	return func(s *settings) { s.hold = h }
}

// WithTiming overrides DefaultTiming.
func WithTiming(t Timing) Option {
	return func(s *settings) { s.timing = t }
}

// WithGuard overrides the default ThreadGuard.
func WithGuard(g Guard) Option {
	return func(s *settings) { s.guard = g }
}

// WithClock sets the latch time source.
func WithClock(c Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithLatch overrides DefaultLatch.
func WithLatch(d time.Duration) Option {
	return func(s *settings) { s.latch = d }
}

// WithAllocator replaces the buffer allocation. Returning nil leaves the
// strip without a buffer and turns every operation into a no-op.
func WithAllocator(f func(n int) []byte) Option {
	return func(s *settings) { s.alloc = f }
}

// WithObserver registers o for frame statistics.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.obs = o }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

func defaultAlloc(n int) []byte {
	if n < 0 {
		return nil
	}
	return make([]byte, n)
}

// New returns a strip of numLeds LEDs driven by pin. The buffer is zeroed
// and brightness scaling is off. pin may be nil when WithPort is given; a
// strip with neither stays disabled.
func New(numLeds int, pin gpio.PinIO, opts ...Option) *Strip {
	cfg := settings{
		timing: DefaultTiming,
		hold:   Spin{PerUnit: 1},
		clock:  sysClock{},
		latch:  DefaultLatch,
		alloc:  defaultAlloc,
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.guard == nil {
		cfg.guard = &ThreadGuard{}
	}
	noLine := cfg.port == nil && pin == nil
	if cfg.port == nil {
		cfg.port = NewPinPort(pin)
		cfg.mask = 0x01
	}

	s := &Strip{
		numLeds: numLeds,
		pin:     pin,
		port:    cfg.port,
		mask:    cfg.mask,
		hold:    cfg.hold,
		timing:  cfg.timing,
		guard:   cfg.guard,
		clock:   cfg.clock,
		latch:   ceilMicros(cfg.latch),
		obs:     cfg.obs,
		log:     cfg.log,
	}
	if noLine {
		s.log.Warn().Int("leds", numLeds).Msg("no pin or port; strip disabled")
		return s
	}
	if b := cfg.alloc(numLeds * Channels); b != nil && len(b) == numLeds*Channels {
		for i := range b {
			b[i] = 0
		}
		s.pixels = b
	} else {
		s.log.Warn().Int("leds", numLeds).Msg("pixel buffer allocation failed; strip disabled")
	}
	return s
}

// String implements conn.Resource.
func (s *Strip) String() string {
	if s.pin == nil {
		return "strip{nil}"
	}
	return fmt.Sprintf("strip{%s}", s.pin)
}

// Begin configures the line as an output at the idle low level. Call it once
// before the first Show. A strip built on a Port without a pin has nothing
// to configure.
func (s *Strip) Begin() error {
	if s.pin == nil {
		return nil
	}
	if err := s.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("strip: configure %s: %w", s.pin, err)
	}
	s.log.Debug().Str("pin", s.pin.String()).Int("leds", s.numLeds).Msg("strip ready")
	return nil
}

// ceilMicros rounds d up to whole microseconds.
func ceilMicros(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32((d + time.Microsecond - 1) / time.Microsecond)
}

// micros is the latch time base: wrapping 32 bit microseconds, rounded down.
func (s *Strip) micros() uint32 {
	return uint32(s.clock.Now().UnixMicro())
}

// endMicros is t on the same base rounded up, so that a truncated now minus
// a rounded up end never exceeds the real idle time.
func endMicros(t time.Time) uint32 {
	us := t.UnixMicro()
	if t.Sub(time.UnixMicro(us)) > 0 {
		us++
	}
	return uint32(us)
}

// waitLatch spins until the latch period since the previous frame has
// elapsed. The difference is taken on wrapping counters so a rollover never
// stalls the wait.
func (s *Strip) waitLatch() {
	if !s.sent {
		return
	}
	for s.micros()-s.endTime < s.latch {
	}
}

// Show sends the buffer. It blocks through the latch wait and the whole
// frame; a frame cannot be interrupted once started.
//
// Show does nothing when the buffer could not be allocated.
func (s *Strip) Show() error {
	if s.pixels == nil {
		return nil
	}
	start := s.clock.Now()
	s.waitLatch()
	sending := s.clock.Now()

	s.guard.Enter()
	bits := s.sendPixels()
	s.guard.Exit()

	end := s.clock.Now()
	s.endTime = endMicros(end)
	s.sent = true

	if s.obs != nil {
		s.obs.FrameSent(FrameStats{Bits: bits, Wait: sending.Sub(start), Duration: end.Sub(sending)})
	}
	if ep, ok := s.port.(errPort); ok {
		if err := ep.Err(); err != nil {
			return fmt.Errorf("%s: write: %w", s, err)
		}
	}
	return nil
}

// Close releases the buffer and returns the line to a floating input.
func (s *Strip) Close() error {
	s.pixels = nil
	if s.pin == nil {
		return nil
	}
	var err error
	if e := s.pin.In(gpio.Float, gpio.NoEdge); e != nil {
		err = multierr.Append(err, fmt.Errorf("strip: release %s: %w", s.pin, e))
	}
	if e := s.pin.Halt(); e != nil {
		err = multierr.Append(err, fmt.Errorf("strip: halt %s: %w", s.pin, e))
	}
	return err
}
