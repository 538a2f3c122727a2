package grid

import (
	"slices"
	"strings"
)

// CellKind is what a single cell displays
type CellKind int

const (
	CellEmpty CellKind = iota
	CellStart
	CellEnd
	CellWall
	CellPath
)

// Snapshot is an immutable copy of a State, safe to hand to other goroutines
type Snapshot struct {
	Size      Size       `json:"size"`
	Start     Position   `json:"start"`
	End       Position   `json:"end"`
	Walls     []Position `json:"walls"`
	Path      []Position `json:"path"`
	StepDelay int        `json:"step_ms"`

	walls map[Position]struct{}
	path  map[Position]struct{}
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Size:      s.size,
		Start:     s.start,
		End:       s.end,
		Walls:     s.Walls(),
		Path:      slices.Clone(s.path),
		StepDelay: s.stepDelay,
		walls:     make(map[Position]struct{}, len(s.walls)),
		path:      make(map[Position]struct{}, len(s.path)),
	}
	for w := range s.walls {
		snap.walls[w] = struct{}{}
	}
	for _, p := range s.path {
		snap.path[p] = struct{}{}
	}
	return snap
}

// Cell returns what p displays. Start wins over end, end over wall, wall
// over path.
func (s Snapshot) Cell(p Position) CellKind {
	switch {
	case p == s.Start:
		return CellStart
	case p == s.End:
		return CellEnd
	case s.isWall(p):
		return CellWall
	case s.onPath(p):
		return CellPath
	}
	return CellEmpty
}

func (s Snapshot) isWall(p Position) bool {
	if s.walls == nil {
		return slices.Contains(s.Walls, p)
	}
	_, ok := s.walls[p]
	return ok
}

func (s Snapshot) onPath(p Position) bool {
	if s.path == nil {
		return slices.Contains(s.Path, p)
	}
	_, ok := s.path[p]
	return ok
}

// ASCII renders the snapshot one row per line: S start, E end, # wall,
// * path, . empty.
func (s Snapshot) ASCII() string {
	var b strings.Builder
	b.Grow(s.Size.Rows * (s.Size.Cols + 1))
	for y := 0; y < s.Size.Rows; y++ {
		for x := 0; x < s.Size.Cols; x++ {
			b.WriteByte(s.Cell(Position{X: x, Y: y}).Glyph())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Glyph is the single character used for a cell kind in text views.
func (k CellKind) Glyph() byte {
	switch k {
	case CellStart:
		return 'S'
	case CellEnd:
		return 'E'
	case CellWall:
		return '#'
	case CellPath:
		return '*'
	}
	return '.'
}
