package grid

import (
	"cmp"
	"fmt"
	"slices"
)

// ChangeKind identifies which part of the state a mutation touched
type ChangeKind int

const (
	ChangeWalls ChangeKind = iota
	ChangeStart
	ChangeEnd
	ChangeSize
	ChangeStep
	ChangeReset
	ChangeLoad
	ChangePath
)

var changeNames = [...]string{"walls", "start", "end", "size", "step", "reset", "load", "path"}

func (k ChangeKind) String() string {
	if k < 0 || int(k) >= len(changeNames) {
		return fmt.Sprintf("change(%d)", int(k))
	}
	return changeNames[k]
}

// AffectsGrid reports whether the change alters what the solver would see.
// Path writes and step changes don't, but a step change still restarts the
// reveal.
func (k ChangeKind) AffectsGrid() bool {
	return k != ChangePath && k != ChangeStep
}

// Change is delivered to subscribers after every successful mutation
type Change struct {
	Kind ChangeKind
}

// State is the single source of truth for one grid view.
//
// It is not safe for concurrent use; callers serialize access through the
// view's UI loop. Every mutating method keeps start != end, keeps start and
// end off walls, and keeps walls and path in bounds.
type State struct {
	maxSize   int
	size      Size
	start     Position
	end       Position
	walls     map[Position]struct{}
	path      []Position
	stepDelay int

	subs   map[int]func(Change)
	nextID int
}

// NewState creates a state with default start/end for size. maxSize narrows
// the upper size bound; values outside [MinSize, MaxSize] mean MaxSize.
func NewState(size Size, maxSize int) *State {
	if maxSize < MinSize || maxSize > MaxSize {
		maxSize = MaxSize
	}
	size = ClampSize(size, maxSize)
	return &State{
		maxSize:   maxSize,
		size:      size,
		start:     DefaultStart(),
		end:       DefaultEnd(size),
		walls:     make(map[Position]struct{}),
		stepDelay: DefaultStepDelay,
		subs:      make(map[int]func(Change)),
	}
}

// Subscribe registers fn for change notifications. Notifications are
// delivered synchronously on the mutating goroutine.
func (s *State) Subscribe(fn func(Change)) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *State) notify(kind ChangeKind) {
	for _, fn := range s.subs {
		fn(Change{Kind: kind})
	}
}

func (s *State) MaxSize() int { return s.maxSize }
func (s *State) Size() Size { return s.size }
func (s *State) Start() Position { return s.start }
func (s *State) End() Position { return s.end }
func (s *State) StepDelay() int { return s.stepDelay }
func (s *State) Path() []Position { return slices.Clone(s.path) }

func (s *State) IsWall(p Position) bool {
	_, ok := s.walls[p]
	return ok
}

// Walls returns the wall cells in row-major order.
func (s *State) Walls() []Position {
	walls := make([]Position, 0, len(s.walls))
	for w := range s.walls {
		walls = append(walls, w)
	}
	sortPositions(walls)
	return walls
}

// ToggleWall inserts or removes a wall at p. Start, end and out of bounds
// cells are left untouched.
func (s *State) ToggleWall(p Position) bool {
	if !s.size.Contains(p) || p == s.start || p == s.end {
		return false
	}
	if _, ok := s.walls[p]; ok {
		delete(s.walls, p)
	} else {
		s.walls[p] = struct{}{}
	}
	s.notify(ChangeWalls)
	return true
}

// MoveStart relocates the start cell unless p is the end or a wall.
func (s *State) MoveStart(p Position) bool {
	if !s.size.Contains(p) || p == s.start || p == s.end || s.IsWall(p) {
		return false
	}
	s.start = p
	s.notify(ChangeStart)
	return true
}

// MoveEnd relocates the end cell unless p is the start or a wall.
func (s *State) MoveEnd(p Position) bool {
	if !s.size.Contains(p) || p == s.end || p == s.start || s.IsWall(p) {
		return false
	}
	s.end = p
	s.notify(ChangeEnd)
	return true
}

// Resize clamps the requested size and fits the rest of the state into it:
// out of bounds walls are dropped, start and end are clamped into bounds and
// pushed apart if they land on the same cell, walls under them are removed
// and the path is cleared.
func (s *State) Resize(size Size) bool {
	size = ClampSize(size, s.maxSize)
	if size == s.size {
		return false
	}

	s.size = size
	for w := range s.walls {
		if !size.Contains(w) {
			delete(s.walls, w)
		}
	}
	s.start = clampPosition(s.start, size)
	s.end = clampPosition(s.end, size)
	if s.start == s.end {
		if s.end != DefaultEnd(size) {
			s.end = DefaultEnd(size)
		} else {
			s.start = DefaultStart()
		}
	}
	delete(s.walls, s.start)
	delete(s.walls, s.end)
	s.path = nil

	s.notify(ChangeSize)
	return true
}

// SetStepDelay sets the reveal delay, clamped to [0, MaxStepDelay].
func (s *State) SetStepDelay(ms int) bool {
	ms = ClampStepDelay(ms)
	if ms == s.stepDelay {
		return false
	}
	s.stepDelay = ms
	s.notify(ChangeStep)
	return true
}

// Reset empties the walls and puts start and end back on their defaults.
func (s *State) Reset() {
	clear(s.walls)
	s.start = DefaultStart()
	s.end = DefaultEnd(s.size)
	s.path = nil
	s.notify(ChangeReset)
}

// Load replaces the whole state with a validated layout.
func (s *State) Load(l *Layout) error {
	if err := ValidateLayout(l); err != nil {
		return err
	}
	size := l.Size()
	if ClampSize(size, s.maxSize) != size {
		return fmt.Errorf("%w: %dx%d exceeds max size %d", ErrInvalidLayout, size.Rows, size.Cols, s.maxSize)
	}

	s.size = size
	s.start = l.Start
	s.end = l.End
	clear(s.walls)
	for _, w := range l.Walls {
		s.walls[w] = struct{}{}
	}
	if l.StepMs != nil {
		s.stepDelay = *l.StepMs
	}
	s.path = nil
	s.notify(ChangeLoad)
	return nil
}

// SetPath replaces the path. Cells must be in bounds.
func (s *State) SetPath(path []Position) error {
	for _, p := range path {
		if !s.size.Contains(p) {
			return fmt.Errorf("path cell %s out of bounds", p)
		}
	}
	s.path = slices.Clone(path)
	s.notify(ChangePath)
	return nil
}

// AppendPath extends the path by one cell.
func (s *State) AppendPath(p Position) error {
	if !s.size.Contains(p) {
		return fmt.Errorf("path cell %s out of bounds", p)
	}
	s.path = append(s.path, p)
	s.notify(ChangePath)
	return nil
}

// ClearPath empties the path.
func (s *State) ClearPath() {
	if len(s.path) == 0 {
		return
	}
	s.path = nil
	s.notify(ChangePath)
}

// Layout exports the current grid as a layout named name.
func (s *State) Layout(name string) *Layout {
	step := s.stepDelay
	return &Layout{
		Name:   name,
		Rows:   s.size.Rows,
		Cols:   s.size.Cols,
		Start:  s.start,
		End:    s.end,
		Walls:  s.Walls(),
		StepMs: &step,
	}
}

func clampPosition(p Position, s Size) Position {
	return Position{X: clamp(p.X, 0, s.Cols-1), Y: clamp(p.Y, 0, s.Rows-1)}
}

func sortPositions(ps []Position) {
	slices.SortFunc(ps, func(a, b Position) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
}
