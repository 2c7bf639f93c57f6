package pattern

import (
	"math"
	"time"
)

// Solid paints every pixel with Color.
type Solid struct {
	Color uint32
}

func (p Solid) Name() string { return "solid" }

func (p Solid) Render(c Canvas, _ time.Duration) {
	fill(c, p.Color)
}

// Wipe lights one more pixel every Step and starts over once the strip is
// full. Useful to check the index order of a strip.
type Wipe struct {
	Color uint32
	Step  time.Duration
}

func (p Wipe) Name() string { return "wipe" }

func (p Wipe) Render(c Canvas, t time.Duration) {
	n := c.NumPixels()
	if n == 0 || p.Step <= 0 {
		return
	}
	lit := int(t/p.Step) % (n + 1)
	for i := 0; i < n; i++ {
		if i < lit {
			c.SetPixel(i, p.Color)
		} else {
			c.SetPixel(i, 0)
		}
	}
}

// Channels cycles the whole strip through pure red, green and blue, one
// channel per Step. A wrong channel order shows up immediately.
type Channels struct {
	Step time.Duration
}

func (p Channels) Name() string { return "channels" }

var channelCycle = [...]uint32{0xFF0000, 0x00FF00, 0x0000FF}

func (p Channels) Render(c Canvas, t time.Duration) {
	if p.Step <= 0 {
		fill(c, channelCycle[0])
		return
	}
	fill(c, channelCycle[int(t/p.Step)%len(channelCycle)])
}

// Rainbow spreads the color wheel over the strip and rotates it once per
// Period.
type Rainbow struct {
	Period time.Duration
}

func (p Rainbow) Name() string { return "rainbow" }

func (p Rainbow) Render(c Canvas, t time.Duration) {
	n := c.NumPixels()
	if n == 0 {
		return
	}
	phase := 0.0
	if p.Period > 0 {
		phase = math.Mod(float64(t)/float64(p.Period), 1)
	}
	for i := 0; i < n; i++ {
		c.SetPixel(i, ColorWheel(math.Mod(float64(i)/float64(n)+phase, 1)))
	}
}

// Fade breathes Color up and down once per Period.
type Fade struct {
	Color  uint32
	Period time.Duration
}

func (p Fade) Name() string { return "fade" }

func (p Fade) Render(c Canvas, t time.Duration) {
	if p.Period <= 0 {
		fill(c, p.Color)
		return
	}
	x := math.Mod(float64(t)/float64(p.Period), 1)
	a := 1 - math.Abs(2*x-1)
	fill(c, Scale(p.Color, uint8(a*255)))
}

// ColorWheel maps h in [0, 1) to a fully saturated hue.
func ColorWheel(h float64) uint32 {
	h *= 6
	switch {
	case h < 1.:
		return rgb(255, byte(255*h), 0)
	case h < 2.:
		return rgb(byte(255*(2-h)), 255, 0)
	case h < 3.:
		return rgb(0, 255, byte(255*(h-2)))
	case h < 4.:
		return rgb(0, byte(255*(4-h)), 255)
	case h < 5.:
		return rgb(byte(255*(h-4)), 0, 255)
	default:
		return rgb(255, 0, byte(255*(6-h)))
	}
}

// Scale multiplies each channel of c by a/255.
func Scale(c uint32, a uint8) uint32 {
	s := func(v uint32) uint32 { return v * uint32(a) / 255 }
	return s(c>>16&0xFF)<<16 | s(c>>8&0xFF)<<8 | s(c&0xFF)
}

func rgb(r, g, b byte) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
