package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/wricardo/gridpath/game/grid"
)

// Palette holds the fill colors per cell kind and the grid line color
type Palette struct {
	Start color.RGBA
	End   color.RGBA
	Wall  color.RGBA
	Path  color.RGBA
	Line  color.RGBA
}

// DefaultPalette returns the standard tile colors.
func DefaultPalette() Palette {
	return Palette{
		Start: mustHex("#6d8c32"),
		End:   mustHex("#94353d"),
		Wall:  mustHex("#2f2b5c"),
		Path:  mustHex("#d1b48c"),
		Line:  mustHex("#2f2b5c"),
	}
}

// Fill returns the fill for a cell kind. Empty cells are transparent.
func (p Palette) Fill(k grid.CellKind) (color.RGBA, bool) {
	switch k {
	case grid.CellStart:
		return p.Start, true
	case grid.CellEnd:
		return p.End, true
	case grid.CellWall:
		return p.Wall, true
	case grid.CellPath:
		return p.Path, true
	}
	return color.RGBA{}, false
}

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("render: bad color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("render: bad color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

func mustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}
