package strip

// sendPixels streams the whole buffer, most significant bit first. The two
// register values are computed once so every other line on the port keeps
// its state for the whole frame.
func (s *Strip) sendPixels() int {
	cur := s.port.Read()
	high := cur | s.mask
	low := cur &^ s.mask

	for _, b := range s.pixels {
		s.sendByte(b, high, low)
	}
	return len(s.pixels) * 8
}

func (s *Strip) sendByte(b, high, low uint8) {
	for m := uint8(0x80); m != 0; m >>= 1 {
		s.sendBit(b&m != 0, high, low)
	}
}
