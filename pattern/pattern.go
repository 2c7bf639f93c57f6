// Package pattern renders animated frames onto anything that takes packed
// RGB pixels.
package pattern

import (
	"fmt"
	"sort"
	"time"
)

// Canvas is the pixel surface a pattern draws on. *strip.Strip satisfies it.
type Canvas interface {
	NumPixels() int
	SetPixel(i int, c uint32)
}

// Pattern draws the frame for time t since the animation started.
type Pattern interface {
	Name() string
	Render(c Canvas, t time.Duration)
}

var registry = map[string]func(c uint32) Pattern{
	"solid":    func(c uint32) Pattern { return Solid{Color: c} },
	"off":      func(uint32) Pattern { return Solid{} },
	"wipe":     func(c uint32) Pattern { return Wipe{Color: c, Step: 50 * time.Millisecond} },
	"channels": func(uint32) Pattern { return Channels{Step: time.Second} },
	"rainbow":  func(uint32) Pattern { return Rainbow{Period: 5 * time.Second} },
	"fade":     func(c uint32) Pattern { return Fade{Color: c, Period: 2 * time.Second} },
}

// New returns the named pattern. c is used by patterns that take a color.
func New(name string, c uint32) (Pattern, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("pattern: unknown %q", name)
	}
	return f(c), nil
}

// Names lists the registered patterns, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func fill(c Canvas, v uint32) {
	for i := 0; i < c.NumPixels(); i++ {
		c.SetPixel(i, v)
	}
}
