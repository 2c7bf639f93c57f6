package strip

import "image/color"

// Byte positions of each channel inside a pixel of the wire buffer. The
// strip expects red, blue, green on the line; the packed API stays RGB.
const (
	RED_OFFSET   = 0
	BLUE_OFFSET  = 1
	GREEN_OFFSET = 2
)

// Channels per LED.
const Channels = 3

// Color packs separate channels into 0x00RRGGBB. The packed format is always
// RGB, regardless of the wire order.
func Color(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Unpack splits a packed 0x00RRGGBB value. The top byte is ignored.
func Unpack(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// NRGBA converts a packed color to an opaque color.NRGBA.
func NRGBA(c uint32) color.NRGBA {
	r, g, b := Unpack(c)
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// FromColor packs any color.Color, dropping alpha after premultiplication.
func FromColor(c color.Color) uint32 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0 {
		return 0
	}
	if n.A != 255 {
		n.R = uint8(uint16(n.R) * uint16(n.A) / 255)
		n.G = uint8(uint16(n.G) * uint16(n.A) / 255)
		n.B = uint8(uint16(n.B) * uint16(n.A) / 255)
	}
	return Color(n.R, n.G, n.B)
}
