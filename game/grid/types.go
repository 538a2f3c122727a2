package grid

import (
	"encoding/json"
	"fmt"
)

const (
	// Size limits for both axes
	MinSize     = 10
	MaxSize     = 100
	DefaultSize = 20

	// Step delay limits in milliseconds
	MaxStepDelay     = 1000
	DefaultStepDelay = 20
)

// Position represents x,y cell coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UnmarshalJSON accepts both {"x":1,"y":2} and [1,2].
func (p *Position) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("position: expected 2 coordinates, got %d", len(pair))
		}
		p.X, p.Y = pair[0], pair[1]
		return nil
	}

	var obj struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Size is the grid dimension in cells
type Size struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Contains reports whether p lies inside the grid.
func (s Size) Contains(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.Cols && p.Y < s.Rows
}

// ClampSize clamps each axis into [MinSize, max]. A max outside
// [MinSize, MaxSize] is treated as MaxSize.
func ClampSize(s Size, max int) Size {
	if max < MinSize || max > MaxSize {
		max = MaxSize
	}
	return Size{Rows: clamp(s.Rows, MinSize, max), Cols: clamp(s.Cols, MinSize, max)}
}

// ClampStepDelay clamps a step delay into [0, MaxStepDelay].
func ClampStepDelay(ms int) int {
	return clamp(ms, 0, MaxStepDelay)
}

// DefaultStart returns the default start cell.
func DefaultStart() Position {
	return Position{X: 0, Y: 0}
}

// DefaultEnd returns the default end cell for a size, the bottom-right corner.
func DefaultEnd(s Size) Position {
	return Position{X: s.Cols - 1, Y: s.Rows - 1}
}

// Layout is a complete grid description, used for presets and snapshots
type Layout struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Rows        int        `json:"rows"`
	Cols        int        `json:"cols"`
	Start       Position   `json:"start"`
	End         Position   `json:"end"`
	Walls       []Position `json:"walls"`
	StepMs      *int       `json:"step_ms,omitempty"`
}

// Size returns the layout dimensions.
func (l *Layout) Size() Size {
	return Size{Rows: l.Rows, Cols: l.Cols}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
