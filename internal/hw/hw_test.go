package hw

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/radioshack-strip/internal/config"
	"github.com/coreman2200/radioshack-strip/strip"
)

func TestSimStrip(t *testing.T) {
	c := config.Default()
	c.Driver = "sim"
	c.LEDs = 4
	c.Brightness = 127
	c.Hold.PerUnit = 1

	s, line, err := NewStrip(c, zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.True(t, line.Sim)
	assert.Equal(t, 4, s.NumPixels())
	assert.Equal(t, uint8(127), s.Brightness())

	require.NoError(t, s.Begin())
	s.SetPixel(0, 0xFFFFFF)
	assert.Equal(t, uint32(0x7F7F7F), s.PixelColor(0))
	require.NoError(t, s.Show())
	require.NoError(t, s.Close())
}

func TestHolder(t *testing.T) {
	c := config.Default()
	c.Hold.PerUnit = 3
	h, err := Holder(c, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, strip.Spin{PerUnit: 3}, h)

	c.Hold.Mode = "timer"
	h, err = Holder(c, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, strip.TimerHold{}, h)

	c.Hold.Mode = "bogus"
	_, err = Holder(c, zerolog.Nop())
	assert.Error(t, err)
}
