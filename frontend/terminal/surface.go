package terminal

import (
	"image/color"
	"math"
)

// TermSurface is a render.Surface with one pixel per grid cell. Draw with a
// display of cols x rows at DPR 1 so every tile maps to exactly one pixel.
type TermSurface struct {
	w, h  int
	cells []color.RGBA
	set   []bool
}

func NewTermSurface() *TermSurface {
	return &TermSurface{}
}

func (s *TermSurface) Resize(width, height int) {
	if width == s.w && height == s.h {
		return
	}
	s.w, s.h = max(width, 0), max(height, 0)
	s.cells = make([]color.RGBA, s.w*s.h)
	s.set = make([]bool, s.w*s.h)
}

func (s *TermSurface) Clear() {
	clear(s.cells)
	clear(s.set)
}

func (s *TermSurface) FillRect(x, y, w, h float64, c color.Color) {
	x0, y0 := int(math.Round(x)), int(math.Round(y))
	x1, y1 := int(math.Round(x+w)), int(math.Round(y+h))
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	for py := max(y0, 0); py < min(y1, s.h); py++ {
		for px := max(x0, 0); px < min(x1, s.w); px++ {
			s.cells[py*s.w+px] = rgba
			s.set[py*s.w+px] = true
		}
	}
}

// Line is a no-op: cell borders are implied by the character grid.
func (s *TermSurface) Line(x1, y1, x2, y2, width float64, c color.Color) {}

// At reports the colour filled at a pixel, if any.
func (s *TermSurface) At(x, y int) (color.RGBA, bool) {
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return color.RGBA{}, false
	}
	i := y*s.w + x
	return s.cells[i], s.set[i]
}

func (s *TermSurface) Size() (int, int) { return s.w, s.h }
