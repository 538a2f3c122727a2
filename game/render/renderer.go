package render

import (
	"errors"
	"math"

	"github.com/wricardo/gridpath/game/grid"
)

var (
	ErrNoSurface = errors.New("render: no drawing surface")
)

// Display is the on-screen size of the view and its device pixel ratio
type Display struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	DPR    float64 `json:"dpr"`
}

// Backing returns the backing pixel size for the display.
func (d Display) Backing() (int, int) {
	dpr := d.DPR
	if dpr <= 0 {
		dpr = 1
	}
	return int(math.Round(d.Width * dpr)), int(math.Round(d.Height * dpr))
}

// Layout is the geometry used by one draw, in backing pixels
type Layout struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	TileW  float64   `json:"tile_w"`
	TileH  float64   `json:"tile_h"`
	Size   grid.Size `json:"size"`
}

// Backing returns the layout size in the form the pointer mapper takes.
func (l Layout) Backing() grid.Backing {
	return grid.Backing{Width: float64(l.Width), Height: float64(l.Height)}
}

// Renderer paints a grid snapshot onto a surface.
//
// Every draw recomputes the backing size from the display, then paints the
// outer border, the cell fills and finally the cell lines so that lines stay
// visible on top of filled cells.
type Renderer struct {
	surface Surface
	palette Palette
}

// lineWidth is the border and grid line width in backing pixels.
const lineWidth = 1

func NewRenderer(surface Surface, palette Palette) *Renderer {
	return &Renderer{surface: surface, palette: palette}
}

// Draw paints snap at the given display geometry.
func (r *Renderer) Draw(snap grid.Snapshot, d Display) (Layout, error) {
	if r.surface == nil {
		return Layout{}, ErrNoSurface
	}

	width, height := d.Backing()
	l := Layout{
		Width:  width,
		Height: height,
		TileW:  float64(width) / float64(snap.Size.Cols),
		TileH:  float64(height) / float64(snap.Size.Rows),
		Size:   snap.Size,
	}

	r.surface.Resize(width, height)
	r.surface.Clear()

	w, h := float64(width), float64(height)
	r.surface.Line(0, 0, w, 0, lineWidth, r.palette.Line)
	r.surface.Line(0, 0, 0, h, lineWidth, r.palette.Line)

	for y := 0; y < snap.Size.Rows; y++ {
		for x := 0; x < snap.Size.Cols; x++ {
			fill, ok := r.palette.Fill(snap.Cell(grid.Position{X: x, Y: y}))
			if !ok {
				continue
			}
			r.surface.FillRect(float64(x)*l.TileW, float64(y)*l.TileH, l.TileW, l.TileH, fill)
		}
	}

	for y := 0; y < snap.Size.Rows; y++ {
		for x := 0; x < snap.Size.Cols; x++ {
			x0, y0 := float64(x)*l.TileW, float64(y)*l.TileH
			x1, y1 := x0+l.TileW, y0+l.TileH
			r.surface.Line(x1, y0, x1, y1, lineWidth, r.palette.Line)
			r.surface.Line(x0, y1, x1, y1, lineWidth, r.palette.Line)
		}
	}

	return l, nil
}
