package strip_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/radioshack-strip/strip"
)

func TestDrawSendsImage(t *testing.T) {
	r := newRig()
	s := strip.New(4, newPin(), r.options(0x01)...)

	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 0xFF, A: 0xFF})
	src.SetNRGBA(1, 0, color.NRGBA{G: 0xFF, A: 0xFF})
	src.SetNRGBA(2, 0, color.NRGBA{B: 0xFF, A: 0xFF})

	require.NoError(t, s.Draw(s.Bounds(), src, image.Point{}))
	assert.Equal(t, uint32(0xFF0000), s.PixelColor(0))
	assert.Equal(t, uint32(0x00FF00), s.PixelColor(1))
	assert.Equal(t, uint32(0x0000FF), s.PixelColor(2))
	assert.Equal(t, uint32(0), s.PixelColor(3))
	assert.Len(t, r.obs.frames, 1)
}

func TestDrawOffsets(t *testing.T) {
	r := newRig()
	s := strip.New(4, newPin(), r.options(0x01)...)

	src := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	for x := 0; x < 4; x++ {
		src.SetNRGBA(x, 0, color.NRGBA{R: uint8(x + 1), A: 0xFF})
	}
	require.NoError(t, s.Draw(image.Rect(2, 0, 4, 1), src, image.Pt(1, 0)))
	assert.Equal(t, uint32(0), s.PixelColor(1))
	assert.Equal(t, uint32(0x020000), s.PixelColor(2))
	assert.Equal(t, uint32(0x030000), s.PixelColor(3))
}

func TestImageMirrorsBuffer(t *testing.T) {
	s := strip.New(2, newPin())
	s.SetPixel(1, 0x102030)
	im := s.Image()
	assert.Equal(t, image.Rect(0, 0, 2, 1), im.Bounds())
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}, im.NRGBAAt(1, 0))
}

func TestBlitKeepsWireIdle(t *testing.T) {
	r := newRig()
	s := strip.New(2, newPin(), r.options(0x01)...)
	src := image.NewUniform(color.NRGBA{R: 1, G: 2, B: 3, A: 0xFF})
	s.Blit(src)
	assert.Equal(t, uint32(0x010203), s.PixelColor(0))
	assert.Equal(t, uint32(0x010203), s.PixelColor(1))
	assert.Empty(t, r.port.writes)
}

func TestHaltBlanks(t *testing.T) {
	r := newRig()
	s := strip.New(2, newPin(), r.options(0x01)...)
	s.SetPixel(0, 0xFFFFFF)
	require.NoError(t, s.Halt())
	assert.Equal(t, make([]byte, 6), s.Pixels())
	assert.Len(t, r.obs.frames, 1)
}

func TestFromColor(t *testing.T) {
	assert.Equal(t, uint32(0x0A141E), strip.FromColor(color.RGBA{R: 10, G: 20, B: 30, A: 255}))
	assert.Equal(t, uint32(0), strip.FromColor(color.NRGBA{R: 255, A: 0}))
	assert.Equal(t, uint32(0x800000), strip.FromColor(color.NRGBA{R: 255, A: 128}))
}

func TestString(t *testing.T) {
	s := strip.New(1, newPin())
	assert.Contains(t, s.String(), "GPIO18")
	assert.Contains(t, s.String(), "strip{")
}
