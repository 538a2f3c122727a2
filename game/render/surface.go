package render

import (
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/fogleman/gg"
)

// Surface is a drawing target measured in backing pixels.
type Surface interface {
	// Resize sets the backing size and resets any transform.
	Resize(width, height int)
	Clear()
	FillRect(x, y, w, h float64, c color.Color)
	Line(x1, y1, x2, y2, width float64, c color.Color)
}

// RasterSurface draws into an in-memory RGBA image.
type RasterSurface struct {
	dc *gg.Context
}

func NewRasterSurface(width, height int) *RasterSurface {
	s := &RasterSurface{}
	s.Resize(width, height)
	return s
}

func (s *RasterSurface) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if s.dc == nil || s.dc.Width() != width || s.dc.Height() != height {
		s.dc = gg.NewContext(width, height)
		return
	}
	s.dc.Identity()
}

func (s *RasterSurface) Clear() {
	s.dc.SetColor(color.Transparent)
	s.dc.Clear()
}

func (s *RasterSurface) FillRect(x, y, w, h float64, c color.Color) {
	s.dc.SetColor(c)
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Fill()
}

func (s *RasterSurface) Line(x1, y1, x2, y2, width float64, c color.Color) {
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width)
	s.dc.DrawLine(x1, y1, x2, y2)
	s.dc.Stroke()
}

// Bounds returns the backing size.
func (s *RasterSurface) Bounds() (int, int) {
	return s.dc.Width(), s.dc.Height()
}

// Clone copies the current image so it can outlive the next draw.
func (s *RasterSurface) Clone() *image.RGBA {
	src := s.dc.Image()
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

func (s *RasterSurface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}

