// Package hw resolves the output line and builds the strip from config.
package hw

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/host/v3"

	"github.com/coreman2200/radioshack-strip/internal/config"
	"github.com/coreman2200/radioshack-strip/strip"
)

// Line is the opened output plus whether it is real hardware.
type Line struct {
	Pin gpio.PinIO
	Sim bool
}

// Open returns the configured pin. The sim driver, or a failed host init or
// lookup, yields a simulated pin so the rest of the program still runs.
func Open(c *config.Config, log zerolog.Logger) Line {
	if c.Driver == "sim" {
		return simLine(c.Pin)
	}
	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("periph host init failed; falling back to SIM")
		return simLine(c.Pin)
	}
	p := gpioreg.ByName(c.Pin)
	if p == nil {
		log.Warn().Str("pin", c.Pin).Msg("pin not found; falling back to SIM")
		return simLine(c.Pin)
	}
	return Line{Pin: p}
}

func simLine(name string) Line {
	return Line{Pin: &gpiotest.Pin{N: name, Num: -1, Fn: "sim"}, Sim: true}
}

// Holder builds the delay primitive described by the hold section.
func Holder(c *config.Config, log zerolog.Logger) (strip.Holder, error) {
	unit := time.Duration(c.Hold.UnitNS) * time.Nanosecond
	switch c.Hold.Mode {
	case "spin":
		if c.Hold.PerUnit > 0 {
			return strip.Spin{PerUnit: c.Hold.PerUnit}, nil
		}
		s := strip.Calibrate(unit, 0)
		log.Info().Int("per_unit", s.PerUnit).Dur("unit", unit).Msg("spin calibrated")
		return s, nil
	case "timer":
		return strip.TimerHold{Clock: wallClock{}, Unit: unit}, nil
	}
	return nil, fmt.Errorf("hw: unknown hold mode %q", c.Hold.Mode)
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewStrip opens the line and returns a strip ready for Begin.
func NewStrip(c *config.Config, log zerolog.Logger, obs strip.Observer) (*strip.Strip, Line, error) {
	line := Open(c, log)
	h, err := Holder(c, log)
	if err != nil {
		return nil, line, err
	}
	opts := []strip.Option{
		strip.WithHolder(h),
		strip.WithTiming(c.StripTiming()),
		strip.WithLatch(c.Latch()),
		strip.WithLogger(log),
	}
	if obs != nil {
		opts = append(opts, strip.WithObserver(obs))
	}
	if line.Sim {
		opts = append(opts, strip.WithGuard(strip.NopGuard{}))
	}
	s := strip.New(c.LEDs, line.Pin, opts...)
	s.SetBrightness(uint8(c.Brightness))
	return s, line, nil
}
