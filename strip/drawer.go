package strip

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/display"
)

// ColorModel implements display.Drawer. There's no surprise, it is
// color.NRGBAModel.
func (s *Strip) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (s *Strip) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.numLeds, 1)
}

// Draw implements display.Drawer. Only the first row of r is used; pixels go
// through the active brightness and the frame is sent right away.
func (s *Strip) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(s.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	if srcR.Empty() {
		return nil
	}
	for x := 0; x < srcR.Dx(); x++ {
		s.SetPixel(r.Min.X+x, FromColor(src.At(srcR.Min.X+x, srcR.Min.Y)))
	}
	return s.Show()
}

// Image returns the current buffer as a one row image.
func (s *Strip) Image() *image.NRGBA {
	im := image.NewNRGBA(s.Bounds())
	for x := 0; x < s.numLeds; x++ {
		im.SetNRGBA(x, 0, NRGBA(s.PixelColor(x)))
	}
	return im
}

// Halt implements conn.Resource. It blanks the strip.
func (s *Strip) Halt() error {
	s.Clear()
	return s.Show()
}

// Blit copies src into the strip without sending it.
func (s *Strip) Blit(src image.Image) {
	dst := image.NewNRGBA(s.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	for x := 0; x < s.numLeds; x++ {
		s.SetPixel(x, FromColor(dst.NRGBAAt(x, 0)))
	}
}

var _ display.Drawer = &Strip{}
