package strip

// scale is the 8x8 bit multiply keeping the high byte.
func scale(c, factor uint8) uint8 {
	return uint8((uint16(c) * uint16(factor)) >> 8)
}

// SetPixelColor stores a color from separate channels. Indexes outside the
// strip are ignored.
//
// The active brightness is applied here, at write time. Changing brightness
// later does not touch pixels already stored.
func (s *Strip) SetPixelColor(i int, r, g, b uint8) {
	if s.pixels == nil || uint(i) >= uint(s.numLeds) {
		return
	}
	if s.brightness != 0 {
		r = scale(r, s.brightness)
		g = scale(g, s.brightness)
		b = scale(b, s.brightness)
	}
	p := s.pixels[i*Channels : i*Channels+Channels]
	p[RED_OFFSET] = r
	p[GREEN_OFFSET] = g
	p[BLUE_OFFSET] = b
}

// SetPixel stores a packed 0x00RRGGBB color.
func (s *Strip) SetPixel(i int, c uint32) {
	r, g, b := Unpack(c)
	s.SetPixelColor(i, r, g, b)
}

// PixelColor returns the packed color stored at i, as scaled at write time.
// It returns 0 for indexes outside the strip.
func (s *Strip) PixelColor(i int) uint32 {
	if s.pixels == nil || uint(i) >= uint(s.numLeds) {
		return 0
	}
	p := s.pixels[i*Channels : i*Channels+Channels]
	return Color(p[RED_OFFSET], p[GREEN_OFFSET], p[BLUE_OFFSET])
}

// SetBrightness sets the scale used by future writes: 0 is off and 255 is
// full passthrough.
//
// The stored value is level+1 and wraps, so 255 is kept as 0 which disables
// scaling altogether and 0 is kept as 1 which scales every channel to 0.
func (s *Strip) SetBrightness(level uint8) {
	s.brightness = level + 1
}

// Brightness returns the level last passed to SetBrightness, 255 if it was
// never called.
func (s *Strip) Brightness() uint8 {
	return s.brightness - 1
}

// NumPixels returns the LED count given to New.
func (s *Strip) NumPixels() int {
	return s.numLeds
}

// Clear zeroes every pixel. Nothing is sent until Show.
func (s *Strip) Clear() {
	for i := range s.pixels {
		s.pixels[i] = 0
	}
}

// Pixels returns a copy of the wire order buffer, nil when the buffer could
// not be allocated.
func (s *Strip) Pixels() []byte {
	if s.pixels == nil {
		return nil
	}
	return append([]byte(nil), s.pixels...)
}
