// Package loop renders a pattern onto the strip at a fixed rate.
package loop

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"

	"github.com/coreman2200/radioshack-strip/pattern"
)

// Target is the strip as seen by the loop.
type Target interface {
	pattern.Canvas
	SetBrightness(level uint8)
	Show() error
	Image() *image.NRGBA
}

// Looper owns the target while running; other goroutines change what it
// renders through the setters, which apply on the next tick.
type Looper struct {
	target  Target
	preview display.Drawer
	log     zerolog.Logger

	mu         sync.Mutex
	pattern    pattern.Pattern
	interval   time.Duration
	brightness *uint8

	frames uint64
}

func New(t Target, p pattern.Pattern, interval time.Duration, log zerolog.Logger) *Looper {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return &Looper{target: t, pattern: p, interval: interval, log: log}
}

// SetPreview mirrors every frame to d, typically a console drawer.
func (l *Looper) SetPreview(d display.Drawer) {
	l.preview = d
}

func (l *Looper) SetPattern(p pattern.Pattern) {
	l.mu.Lock()
	l.pattern = p
	l.mu.Unlock()
}

func (l *Looper) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	l.interval = d
	l.mu.Unlock()
}

func (l *Looper) SetBrightness(level uint8) {
	l.mu.Lock()
	l.brightness = &level
	l.mu.Unlock()
}

// Frames returns how many frames were rendered.
func (l *Looper) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Run renders until ctx is done.
func (l *Looper) Run(ctx context.Context) error {
	start := time.Now()
	interval := l.currentInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			l.Step(t.Sub(start))
			if d := l.currentInterval(); d != interval {
				interval = d
				ticker.Reset(interval)
			}
		}
	}
}

func (l *Looper) currentInterval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}

// Step renders and shows one frame for time t.
func (l *Looper) Step(t time.Duration) {
	l.mu.Lock()
	p := l.pattern
	b := l.brightness
	l.brightness = nil
	l.frames++
	l.mu.Unlock()

	if b != nil {
		l.target.SetBrightness(*b)
	}
	if p != nil {
		p.Render(l.target, t)
	}
	if err := l.target.Show(); err != nil {
		l.log.Warn().Err(err).Msg("show failed")
	}
	if l.preview != nil {
		if err := l.preview.Draw(l.preview.Bounds(), l.target.Image(), image.Point{}); err != nil {
			l.log.Warn().Err(err).Msg("preview draw failed")
		}
	}
}
