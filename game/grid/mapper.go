package grid

import "math"

// Pointer is a pointer location in client (page) coordinates
type Pointer struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// Rect is the displayed bounding box of the canvas in client coordinates
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Backing is the pixel size of the drawing surface, normally the displayed
// size times the device pixel ratio
type Backing struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BackingFor returns the backing size for a displayed rect at dpr.
func BackingFor(r Rect, dpr float64) Backing {
	if dpr <= 0 {
		dpr = 1
	}
	return Backing{Width: r.Width * dpr, Height: r.Height * dpr}
}

// Outside is returned by MapPointer when the geometry is degenerate.
var Outside = Position{X: -1, Y: -1}

// MapPointer converts a pointer location to the cell under it.
//
// The pointer is made canvas-local by subtracting the rect origin, scaled
// from displayed to backing pixels and floor-divided by the tile size. The
// result may be out of bounds; check it with Size.Contains.
func MapPointer(p Pointer, r Rect, b Backing, s Size) Position {
	if r.Width <= 0 || r.Height <= 0 || s.Cols <= 0 || s.Rows <= 0 || b.Width <= 0 || b.Height <= 0 {
		return Outside
	}

	x := (p.ClientX - r.Left) * (b.Width / r.Width)
	y := (p.ClientY - r.Top) * (b.Height / r.Height)

	tileW := b.Width / float64(s.Cols)
	tileH := b.Height / float64(s.Rows)

	return Position{
		X: int(math.Floor(x / tileW)),
		Y: int(math.Floor(y / tileH)),
	}
}

// CellCenter is the inverse of MapPointer for the center of a cell, in
// client coordinates.
func CellCenter(p Position, r Rect, s Size) Pointer {
	return Pointer{
		ClientX: r.Left + (float64(p.X)+0.5)*r.Width/float64(s.Cols),
		ClientY: r.Top + (float64(p.Y)+0.5)*r.Height/float64(s.Rows),
	}
}
